package gatt

import (
	"github.com/godbus/dbus/v5"
)

// BlueZ error names understood by the GATT and advertising managers.
const (
	errNotSupported     = "org.bluez.Error.NotSupported"
	errInvalidArguments = "org.bluez.Error.InvalidArguments"
	errFailed           = "org.bluez.Error.Failed"
)

// NotSupportedError signals that the requested operation is not offered by
// the characteristic (e.g. a read on a characteristic without the "read"
// flag).
func NotSupportedError(msg string) *dbus.Error {
	return dbus.NewError(errNotSupported, []interface{}{msg})
}

// InvalidArgumentsError signals a property query against an interface the
// object does not implement.
func InvalidArgumentsError(msg string) *dbus.Error {
	return dbus.NewError(errInvalidArguments, []interface{}{msg})
}

// FailedError wraps a handler error for transport back through BlueZ.
func FailedError(err error) *dbus.Error {
	return dbus.NewError(errFailed, []interface{}{err.Error()})
}
