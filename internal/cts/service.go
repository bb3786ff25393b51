// Package cts implements the GATT Current Time Service: the binary
// encoders for its two characteristics and the service constructor that
// mounts them onto a GATT application.
package cts

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/ha-addons/bluetooth-cts/internal/gatt"
)

// Current Time Service UUIDs (Bluetooth SIG assigned numbers).
var (
	ServiceUUID       = gatt.UUID16("1805")
	CurrentTimeUUID   = gatt.UUID16("2a2b")
	LocalTimeInfoUUID = gatt.UUID16("2a0f")
)

// NewService builds the Current Time Service: one primary service with the
// read-only Current Time and Local Time Information characteristics. Each
// read recomputes from the encoder's live clock; nothing is cached.
func NewService(index int, enc *Encoder, logger *logrus.Logger) *gatt.Service {
	svc := gatt.NewService(index, ServiceUUID, true, logger)
	svc.NewCharacteristic(CurrentTimeUUID, []string{"read"},
		func(_ map[string]dbus.Variant) ([]byte, error) {
			return enc.CurrentTime(), nil
		})
	svc.NewCharacteristic(LocalTimeInfoUUID, []string{"read"},
		func(_ map[string]dbus.Variant) ([]byte, error) {
			return enc.LocalTimeInfo(), nil
		})
	return svc
}
