package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// ObjectManagerInterface is the standard D-Bus object-manager interface
// BlueZ uses to discover the full application tree in one call.
const ObjectManagerInterface = "org.freedesktop.DBus.ObjectManager"

// ManagedObjects maps each published object path to its interface-property
// mapping, the shape org.freedesktop.DBus.ObjectManager.GetManagedObjects
// returns on the wire.
type ManagedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Application is the root of the published GATT tree. It owns services in
// registration order and answers GetManagedObjects for the whole tree.
type Application struct {
	path     dbus.ObjectPath
	services []*Service
	logger   *logrus.Logger
}

// NewApplication creates an empty application rooted at "/".
func NewApplication(logger *logrus.Logger) *Application {
	if logger == nil {
		logger = logrus.New()
	}
	return &Application{
		path:   "/",
		logger: logger,
	}
}

// Path returns the application's D-Bus object path.
func (a *Application) Path() dbus.ObjectPath {
	return a.path
}

// Services returns the registered services in registration order.
func (a *Application) Services() []*Service {
	return a.services
}

// AddService appends a service to the application. No UUID de-duplication
// is performed; registering the same UUID twice is a caller error.
func (a *Application) AddService(s *Service) {
	a.services = append(a.services, s)
}

// ManagedObjects flattens the tree into the object-manager view: one entry
// per service and one per characteristic, with every characteristic's
// Service property pointing at a service entry in the same mapping.
func (a *Application) ManagedObjects() ManagedObjects {
	objects := make(ManagedObjects)
	for _, s := range a.services {
		objects[s.Path()] = s.Properties()
		for _, c := range s.Characteristics() {
			objects[c.Path()] = c.Properties()
		}
	}
	return objects
}

// GetManagedObjects implements the object-manager call BlueZ issues during
// RegisterApplication.
func (a *Application) GetManagedObjects() (ManagedObjects, *dbus.Error) {
	a.logger.WithField("services", len(a.services)).Debug("GetManagedObjects")
	return a.ManagedObjects(), nil
}

// Export publishes the application and its whole tree on the given bus
// connection. It must be called before the application path is handed to
// GattManager1.RegisterApplication.
func (a *Application) Export(conn *dbus.Conn) error {
	err := conn.ExportMethodTable(map[string]interface{}{
		"GetManagedObjects": a.GetManagedObjects,
	}, a.path, ObjectManagerInterface)
	if err != nil {
		return fmt.Errorf("failed to export application: %w", err)
	}
	for _, s := range a.services {
		if err := s.export(conn); err != nil {
			return err
		}
	}
	return nil
}
