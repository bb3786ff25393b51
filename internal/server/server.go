// Package server orchestrates startup against the host BlueZ stack: adapter
// discovery, GATT application and advertisement registration, and the
// passive run loop that blocks until the process is interrupted.
package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/ha-addons/bluetooth-cts/internal/advert"
	"github.com/ha-addons/bluetooth-cts/internal/config"
	"github.com/ha-addons/bluetooth-cts/internal/cts"
	"github.com/ha-addons/bluetooth-cts/internal/gatt"
)

const (
	bluezBusName         = "org.bluez"
	bluezRootPath        = dbus.ObjectPath("/")
	adapterInterface     = "org.bluez.Adapter1"
	gattManagerInterface = "org.bluez.GattManager1"
)

// ErrNoAdapter indicates that no object on the bus implements
// org.bluez.Adapter1. Fatal at startup, never retried.
var ErrNoAdapter = errors.New("no Bluetooth adapter found")

// State tracks the registrar's lifecycle. The only transitions are
// starting -> adapter_discovered -> registered -> running -> stopped, with
// a direct starting -> stopped path when no adapter exists.
type State string

const (
	StateStarting          State = "starting"
	StateAdapterDiscovered State = "adapter_discovered"
	StateRegistered        State = "registered"
	StateRunning           State = "running"
	StateStopped           State = "stopped"
)

// Server owns the daemon's long-lived wait state and the D-Bus connection
// everything is published on.
type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	clock  cts.Clock
	state  State
}

// New creates a server. A nil clock means the system wall clock.
func New(cfg *config.Config, clock cts.Clock, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		state:  StateStarting,
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return s.state
}

func (s *Server) setState(next State) {
	s.logger.WithFields(logrus.Fields{
		"from": s.state,
		"to":   next,
	}).Debug("State transition")
	s.state = next
}

// Run executes the startup sequence and blocks until ctx is cancelled.
// Registration outcomes are reported asynchronously by BlueZ and only
// logged; a rejected registration leaves the process running degraded.
// Returns ErrNoAdapter if the bus has no adapter object.
func (s *Server) Run(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	objects, err := managedObjects(conn)
	if err != nil {
		return fmt.Errorf("failed to enumerate BlueZ objects: %w", err)
	}
	adapterPath, ok := findAdapter(objects, s.cfg.Adapter)
	if !ok {
		s.setState(StateStopped)
		return ErrNoAdapter
	}
	s.setState(StateAdapterDiscovered)
	s.logger.WithField("adapter", adapterPath).Info("Using Bluetooth adapter")
	s.checkPowered(conn, adapterPath)

	encoder := cts.NewEncoder(s.cfg.Timezone, s.clock, s.logger)

	app := gatt.NewApplication(s.logger)
	app.AddService(cts.NewService(0, encoder, s.logger))
	if err := app.Export(conn); err != nil {
		return err
	}

	adv := advert.New(0, advert.TypePeripheral, s.logger)
	adv.AddServiceUUID(cts.ServiceUUID)
	adv.SetLocalName(s.cfg.DeviceName)
	adv.SetIncludeTxPower(true)
	if err := adv.Export(conn); err != nil {
		return err
	}

	// Both registrations are fire-and-log: BlueZ answers asynchronously and
	// the advertisement is submitted without waiting for the application.
	adapter := conn.Object(bluezBusName, adapterPath)
	s.logger.Info("Registering Current Time Service...")
	s.registerAsync(adapter, gattManagerInterface+".RegisterApplication",
		"GATT application", app.Path())
	s.logger.Info("Registering advertisement...")
	s.registerAsync(adapter, advert.ManagerInterface+".RegisterAdvertisement",
		"advertisement", adv.Path())
	s.setState(StateRegistered)

	s.setState(StateRunning)
	s.logger.Info("CTS server is running - devices can now sync time")
	<-ctx.Done()

	s.logger.Info("Shutting down...")
	s.setState(StateStopped)
	return nil
}

// registerAsync submits a registration call and logs its outcome from a
// goroutine once BlueZ replies.
func (s *Server) registerAsync(adapter dbus.BusObject, method, what string, path dbus.ObjectPath) {
	ch := make(chan *dbus.Call, 1)
	adapter.Go(method, 0, ch, path, map[string]dbus.Variant{})
	go func() {
		call := <-ch
		if call.Err != nil {
			s.logger.WithError(call.Err).Errorf("Failed to register %s", what)
			return
		}
		s.logger.Infof("Registered %s", what)
	}()
}

// checkPowered warns when the adapter reports itself unpowered. Best
// effort; an unreadable property is not fatal.
func (s *Server) checkPowered(conn *dbus.Conn, adapterPath dbus.ObjectPath) {
	variant, err := conn.Object(bluezBusName, adapterPath).GetProperty(adapterInterface + ".Powered")
	if err != nil {
		s.logger.WithError(err).Warn("Could not read adapter Powered state")
		return
	}
	if powered, ok := variant.Value().(bool); ok && !powered {
		s.logger.WithField("adapter", adapterPath).Warn("Adapter is not powered")
	}
}

// managedObjects fetches the full BlueZ object tree in one call.
func managedObjects(conn *dbus.Conn) (gatt.ManagedObjects, error) {
	var objects gatt.ManagedObjects
	err := conn.Object(bluezBusName, bluezRootPath).
		Call(gatt.ObjectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// findAdapter selects the first object implementing org.bluez.Adapter1,
// in path order so the choice is stable across runs. A non-empty adapter
// name (e.g. "hci0") narrows the match to that object path.
func findAdapter(objects gatt.ManagedObjects, adapter string) (dbus.ObjectPath, bool) {
	paths := make([]string, 0, len(objects))
	for path := range objects {
		paths = append(paths, string(path))
	}
	sort.Strings(paths)

	for _, path := range paths {
		if _, ok := objects[dbus.ObjectPath(path)][adapterInterface]; !ok {
			continue
		}
		if adapter != "" && !strings.HasSuffix(path, "/"+adapter) {
			continue
		}
		return dbus.ObjectPath(path), true
	}
	return "", false
}
