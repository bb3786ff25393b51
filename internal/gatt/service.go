package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	// ServiceInterface is the BlueZ D-Bus interface services are published
	// under.
	ServiceInterface = "org.bluez.GattService1"

	// PropertiesInterface is the standard D-Bus properties interface.
	PropertiesInterface = "org.freedesktop.DBus.Properties"

	servicePathBase = "/org/bluez/gatt/service"
)

// Service is a GATT service and the characteristics it owns. Services are
// constructed once at startup and are immutable after being added to an
// Application.
type Service struct {
	uuid            string
	primary         bool
	path            dbus.ObjectPath
	characteristics []*Characteristic
	logger          *logrus.Logger
}

// NewService creates a service at /org/bluez/gatt/service<index>. Indices
// must be unique per application; no collision check is performed.
func NewService(index int, uuid string, primary bool, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		uuid:    uuid,
		primary: primary,
		path:    dbus.ObjectPath(fmt.Sprintf("%s%d", servicePathBase, index)),
		logger:  logger,
	}
}

// UUID returns the service UUID.
func (s *Service) UUID() string {
	return s.uuid
}

// Path returns the service's D-Bus object path.
func (s *Service) Path() dbus.ObjectPath {
	return s.path
}

// Characteristics returns the owned characteristics in registration order.
func (s *Service) Characteristics() []*Characteristic {
	return s.characteristics
}

// NewCharacteristic appends a characteristic to the service. Its object path
// is the service path plus a zero-padded index, which keeps paths unique as
// long as each characteristic is added exactly once. A nil read handler
// makes the characteristic unreadable.
func (s *Service) NewCharacteristic(uuid string, flags []string, read ReadHandler) *Characteristic {
	c := &Characteristic{
		uuid:    uuid,
		flags:   flags,
		service: s,
		path:    dbus.ObjectPath(fmt.Sprintf("%s/char%04d", s.path, len(s.characteristics))),
		read:    read,
		logger:  s.logger,
	}
	s.characteristics = append(s.characteristics, c)
	return c
}

// Properties returns the interface-property mapping published for this
// service in the managed-objects tree.
func (s *Service) Properties() map[string]map[string]dbus.Variant {
	paths := make([]dbus.ObjectPath, 0, len(s.characteristics))
	for _, c := range s.characteristics {
		paths = append(paths, c.Path())
	}
	return map[string]map[string]dbus.Variant{
		ServiceInterface: {
			"UUID":            dbus.MakeVariant(s.uuid),
			"Primary":         dbus.MakeVariant(s.primary),
			"Characteristics": dbus.MakeVariant(paths),
		},
	}
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (s *Service) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != ServiceInterface {
		return nil, InvalidArgumentsError(fmt.Sprintf("unknown interface %s", iface))
	}
	return s.Properties()[ServiceInterface], nil
}

func (s *Service) export(conn *dbus.Conn) error {
	err := conn.ExportMethodTable(map[string]interface{}{
		"GetAll": s.GetAll,
	}, s.path, PropertiesInterface)
	if err != nil {
		return fmt.Errorf("failed to export service %s: %w", s.uuid, err)
	}
	for _, c := range s.characteristics {
		if err := c.export(conn); err != nil {
			return err
		}
	}
	return nil
}
