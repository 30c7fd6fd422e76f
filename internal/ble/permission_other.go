//go:build !linux

package ble

// DefaultPermissionGate enables the adapter, which triggers the operating
// system's Bluetooth consent prompt where there is one. powerOn is ignored.
func DefaultPermissionGate(adapter Adapter, powerOn bool) PermissionGate {
	return AdapterGate{Adapter: adapter}
}
