package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// CharacteristicInterface is the BlueZ D-Bus interface characteristics are
// published under.
const CharacteristicInterface = "org.bluez.GattCharacteristic1"

// ReadHandler produces the characteristic value for one read request. The
// options map carries offset/MTU context from BlueZ; handlers here may
// ignore it since CTS payloads fit the minimum MTU.
type ReadHandler func(options map[string]dbus.Variant) ([]byte, error)

// Characteristic is one addressable value within a Service. A characteristic
// without a ReadHandler is unreadable: ReadValue answers NotSupported rather
// than invoking anything.
type Characteristic struct {
	uuid    string
	flags   []string
	service *Service
	path    dbus.ObjectPath
	read    ReadHandler
	logger  *logrus.Logger
}

// UUID returns the characteristic UUID.
func (c *Characteristic) UUID() string {
	return c.uuid
}

// Path returns the characteristic's D-Bus object path, derived from the
// owning service's path plus the characteristic index.
func (c *Characteristic) Path() dbus.ObjectPath {
	return c.path
}

// Properties returns the interface-property mapping published for this
// characteristic in the managed-objects tree.
func (c *Characteristic) Properties() map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		CharacteristicInterface: {
			"Service": dbus.MakeVariant(c.service.Path()),
			"UUID":    dbus.MakeVariant(c.uuid),
			"Flags":   dbus.MakeVariant(c.flags),
		},
	}
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (c *Characteristic) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != CharacteristicInterface {
		return nil, InvalidArgumentsError(fmt.Sprintf("unknown interface %s", iface))
	}
	return c.Properties()[CharacteristicInterface], nil
}

// ReadValue implements org.bluez.GattCharacteristic1.ReadValue. BlueZ calls
// it for every inbound read from a central.
func (c *Characteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	c.logger.WithField("uuid", c.uuid).Debug("ReadValue")
	if c.read == nil {
		return nil, NotSupportedError("Read not supported")
	}
	value, err := c.read(options)
	if err != nil {
		return nil, FailedError(err)
	}
	return value, nil
}

func (c *Characteristic) export(conn *dbus.Conn) error {
	err := conn.ExportMethodTable(map[string]interface{}{
		"ReadValue": c.ReadValue,
	}, c.path, CharacteristicInterface)
	if err != nil {
		return fmt.Errorf("failed to export characteristic %s: %w", c.uuid, err)
	}
	err = conn.ExportMethodTable(map[string]interface{}{
		"GetAll": c.GetAll,
	}, c.path, PropertiesInterface)
	if err != nil {
		return fmt.Errorf("failed to export characteristic %s properties: %w", c.uuid, err)
	}
	return nil
}
