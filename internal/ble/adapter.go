// Package ble manages the connection to a hexagon LED controller: the
// transport port implemented by the underlying Bluetooth stack, and the
// session layer that adds connect retries, write-time reconnects and
// best-effort state capture on top of it.
package ble

import "context"

// GATT identifiers for the MeRGBW control service.
const (
	ServiceUUID    = "0000fff0-0000-1000-8000-00805f9b34fb"
	WriteCharUUID  = "0000fff3-0000-1000-8000-00805f9b34fb"
	NotifyCharUUID = "0000fff4-0000-1000-8000-00805f9b34fb"
)

// Characteristic represents a writable BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic, waiting for the peripheral's
	// acknowledgement when withResponse is true.
	Write(data []byte, withResponse bool) error
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// ResolveWriteTarget finds the write characteristic within a service and
	// reports whether writes to it must wait for a response (true when the
	// characteristic lacks the write-without-response property).
	ResolveWriteTarget(serviceUUID, charUUID string) (Characteristic, bool, error)
	// Subscribe registers a callback for notifications on a characteristic.
	Subscribe(charUUID string, callback func(data []byte)) error
	// Disconnect terminates the connection. Idempotent, best-effort.
	Disconnect() error
	// Connected reports whether the link is still up.
	Connected() bool
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Connect establishes a connection to the device at the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
