// Package advert models the BLE advertising payload published to BlueZ via
// org.bluez.LEAdvertisingManager1.
package advert

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/ha-addons/bluetooth-cts/internal/gatt"
)

const (
	// Interface is the BlueZ D-Bus interface advertisements are published
	// under.
	Interface = "org.bluez.LEAdvertisement1"

	// ManagerInterface is the BlueZ advertising manager consumed by the
	// registrar.
	ManagerInterface = "org.bluez.LEAdvertisingManager1"

	// TypePeripheral is the advertising type for connectable peripherals.
	TypePeripheral = "peripheral"

	pathBase = "/org/bluez/gatt/advertisement"
)

// Advertisement holds the fields to broadcast. Optional fields left unset
// are omitted from the published property set entirely; BlueZ distinguishes
// an absent field from an empty one.
type Advertisement struct {
	path           dbus.ObjectPath
	adType         string
	serviceUUIDs   []string
	localName      string
	nameSet        bool
	includeTxPower bool
	logger         *logrus.Logger
}

// New creates an advertisement at /org/bluez/gatt/advertisement<index>.
func New(index int, adType string, logger *logrus.Logger) *Advertisement {
	if logger == nil {
		logger = logrus.New()
	}
	return &Advertisement{
		path:   dbus.ObjectPath(fmt.Sprintf("%s%d", pathBase, index)),
		adType: adType,
		logger: logger,
	}
}

// Path returns the advertisement's D-Bus object path.
func (a *Advertisement) Path() dbus.ObjectPath {
	return a.path
}

// AddServiceUUID appends a service UUID to broadcast, lazily initializing
// the backing list on first call.
func (a *Advertisement) AddServiceUUID(uuid string) {
	if a.serviceUUIDs == nil {
		a.serviceUUIDs = []string{}
	}
	a.serviceUUIDs = append(a.serviceUUIDs, uuid)
}

// SetLocalName sets the advertised device name.
func (a *Advertisement) SetLocalName(name string) {
	a.localName = name
	a.nameSet = true
}

// SetIncludeTxPower controls whether TX power is included in the broadcast.
func (a *Advertisement) SetIncludeTxPower(include bool) {
	a.includeTxPower = include
}

// Properties returns the published property set. Only fields that have been
// set are emitted; Type is always present.
func (a *Advertisement) Properties() map[string]dbus.Variant {
	props := map[string]dbus.Variant{
		"Type": dbus.MakeVariant(a.adType),
	}
	if a.serviceUUIDs != nil {
		props["ServiceUUIDs"] = dbus.MakeVariant(a.serviceUUIDs)
	}
	if a.nameSet {
		props["LocalName"] = dbus.MakeVariant(a.localName)
	}
	if a.includeTxPower {
		props["IncludeTxPower"] = dbus.MakeVariant(a.includeTxPower)
	}
	return props
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (a *Advertisement) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != Interface {
		return nil, gatt.InvalidArgumentsError(fmt.Sprintf("unknown interface %s", iface))
	}
	return a.Properties(), nil
}

// Release implements org.bluez.LEAdvertisement1.Release, called by BlueZ
// when the advertisement is torn down externally. Not an error condition.
func (a *Advertisement) Release() *dbus.Error {
	a.logger.Info("Advertisement released")
	return nil
}

// Export publishes the advertisement on the given bus connection.
func (a *Advertisement) Export(conn *dbus.Conn) error {
	err := conn.ExportMethodTable(map[string]interface{}{
		"Release": a.Release,
	}, a.path, Interface)
	if err != nil {
		return fmt.Errorf("failed to export advertisement: %w", err)
	}
	err = conn.ExportMethodTable(map[string]interface{}{
		"GetAll": a.GetAll,
	}, a.path, gatt.PropertiesInterface)
	if err != nil {
		return fmt.Errorf("failed to export advertisement properties: %w", err)
	}
	return nil
}
