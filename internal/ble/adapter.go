// Package ble provides the Bluetooth Low Energy control channel for an
// electronic scoreboard. It handles discovery, a single active connection,
// and delivery of one-byte commands to the scoreboard's control
// characteristic.
package ble

import "context"

// Default scoreboard UUIDs (HM-10 style UART service). Both are overridable
// through Options.
const (
	DefaultServiceUUID     = "0000ffe0-0000-1000-8000-00805f9b34fb"
	DefaultControlCharUUID = "0000ffe1-0000-1000-8000-00805f9b34fb"
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic.
	Write(data []byte) error
}

// Peripheral describes one discovered scoreboard candidate.
type Peripheral struct {
	ID   string // stable device identifier (MAC on Linux, CoreBluetooth UUID on macOS)
	Name string // advertised local name, may be empty
	RSSI int    // signal strength, display only
}

// DisplayName returns the advertised name, or a placeholder for unnamed devices.
func (p Peripheral) DisplayName() string {
	if p.Name == "" {
		return "Unknown device"
	}
	return p.Name
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan reports every advertisement carrying serviceUUID (all
	// advertisements when serviceUUID is empty) until ctx is cancelled.
	// It blocks for the whole scan.
	Scan(ctx context.Context, serviceUUID string, onResult func(Peripheral)) error
	// Connect establishes a connection to the device with the given identifier.
	Connect(ctx context.Context, id string) (Connection, error)
}
