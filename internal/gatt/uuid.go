package gatt

import (
	"strings"
)

// Bluetooth SIG base UUID suffix for 16-bit assigned numbers.
const baseUUIDSuffix = "-0000-1000-8000-00805f9b34fb"

// UUID16 expands a 16-bit Bluetooth assigned number (e.g. "1805") to its
// full 128-bit base-UUID form. Strings that are already full UUIDs are
// returned lowercased unchanged.
func UUID16(short string) string {
	short = strings.TrimPrefix(strings.ToLower(short), "0x")
	if len(short) == 36 {
		return short
	}
	for len(short) < 4 {
		short = "0" + short
	}
	return "0000" + short + baseUUIDSuffix
}
