package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ha-addons/bluetooth-cts/internal/config"
	"github.com/ha-addons/bluetooth-cts/internal/cts"
	"github.com/ha-addons/bluetooth-cts/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Current Time Service GATT server",
	Long: `Runs the CTS GATT server against the host BlueZ stack.

Discovers the first Bluetooth adapter (exit code 1 if none), registers the
GATT application and a peripheral advertisement, and blocks until
interrupted. The advertised time zone follows the TZ environment variable,
falling back to the host local zone.

Examples:
  # Run with defaults (device name "HomeAssistant-CTS")
  ctsd serve

  # Custom device name and debug logging
  ctsd serve --device-name Kitchen-Clock --log-level debug

  # Load settings from a YAML config file
  ctsd serve --config /etc/ctsd.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveDeviceName string
	serveAdapter    string
	serveTimezone   string
	serveConfigFile string
)

func init() {
	serveCmd.Flags().StringVar(&serveDeviceName, "device-name", "", "Bluetooth device name to advertise")
	serveCmd.Flags().StringVar(&serveAdapter, "adapter", "", "Bluetooth adapter to use (e.g. hci0); first found if unset")
	serveCmd.Flags().StringVar(&serveTimezone, "timezone", "", "IANA time zone name (overrides TZ environment variable)")
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Path to YAML config file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"device_name": cfg.DeviceName,
		"log_level":   cfg.LogLevel,
	}).Info("Bluetooth CTS time sync server")
	logStartupTime(cfg, logger)

	// Interrupt unwinds the server's wait and exits cleanly
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	return server.New(cfg, cts.SystemClock(), logger).Run(ctx)
}

// loadServeConfig builds the effective configuration: defaults, then config
// file, then TZ environment, then flags.
func loadServeConfig() (*config.Config, error) {
	cfg, err := config.Load(serveConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvironment()
	if serveDeviceName != "" {
		cfg.DeviceName = serveDeviceName
	}
	if serveAdapter != "" {
		cfg.Adapter = serveAdapter
	}
	if serveTimezone != "" {
		cfg.Timezone = serveTimezone
	}
	return cfg, nil
}

// logStartupTime reports the resolved zone and wall-clock time once at
// startup, before any central connects.
func logStartupTime(cfg *config.Config, logger *logrus.Logger) {
	enc := cts.NewEncoder(cfg.Timezone, cts.SystemClock(), logger)
	now := enc.Now()
	logger.WithFields(logrus.Fields{
		"time":     now.Format(time.RFC3339),
		"timezone": now.Location().String(),
	}).Info("Startup local time")
}
