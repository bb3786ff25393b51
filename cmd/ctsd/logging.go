package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ha-addons/bluetooth-cts/internal/config"
)

// configureLogger creates the daemon logger from the loaded configuration,
// letting a --log-level flag override the configured level. Returns a
// configured logger or an error if the level is invalid.
func configureLogger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		cfg.LogLevel = logLevelStr
	}
	return cfg.NewLogger()
}
