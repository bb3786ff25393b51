// Package gatt models a BLE peripheral's GATT application as the tree of
// D-Bus objects BlueZ expects from org.bluez.GattManager1 clients.
//
// An Application owns Services, a Service owns Characteristics, and the
// whole tree is published in one GetManagedObjects call. Object paths are
// assigned hierarchically so BlueZ can route ReadValue calls back to the
// owning characteristic. Everything is built once at startup and never
// mutated afterwards; handler invocations arrive serially from the D-Bus
// dispatch loop, so no locking is needed.
package gatt
