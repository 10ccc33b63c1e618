package ble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// BluetoothAdapter wraps tinygo-org/bluetooth. On Linux addresses are MAC
// strings; on macOS they are CoreBluetooth UUIDs — both go through the same
// Address.Set parsing.
type BluetoothAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*bluetoothConnection // keyed by device address
}

// NewBluetoothAdapter creates an adapter backed by the platform's default
// Bluetooth stack.
func NewBluetoothAdapter() *BluetoothAdapter {
	return &BluetoothAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*bluetoothConnection),
	}
}

func (a *BluetoothAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// The stack fires this callback with connected=false when the
	// peripheral drops the link. Flip the matching connection so
	// Connected() reports the drop and the session reconnects.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		a.mu.Unlock()
		if ok {
			conn.setDisconnected()
		}
	})

	return nil
}

func (a *BluetoothAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// Wrap it to also respect ctx cancellation.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect will eventually time out or succeed on its
		// own; it cannot be cancelled from here.
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		conn := &bluetoothConnection{device: result.device, connected: true}

		// Track the connection so the adapter-level disconnect handler can
		// find it when the link drops.
		a.mu.Lock()
		a.connections[result.device.Address.String()] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

var _ Adapter = (*BluetoothAdapter)(nil)

type bluetoothConnection struct {
	device bluetooth.Device

	mu          sync.Mutex
	connected   bool
	serviceUUID string // remembered from ResolveWriteTarget for Subscribe
}

func (c *bluetoothConnection) discoverCharacteristic(serviceUUID, charUUID string) (*bluetooth.DeviceCharacteristic, error) {
	svcUUID, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: parse service UUID: %w", err)
	}
	chUUID, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: parse characteristic UUID: %w", err)
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", serviceUUID)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{chUUID})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", charUUID)
	}
	return &chars[0], nil
}

func (c *bluetoothConnection) ResolveWriteTarget(serviceUUID, charUUID string) (Characteristic, bool, error) {
	char, err := c.discoverCharacteristic(serviceUUID, charUUID)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.serviceUUID = serviceUUID
	c.mu.Unlock()
	// tinygo's DeviceCharacteristic does not expose GATT properties, and
	// these controllers all accept write-without-response on 0xFFF3.
	return &bluetoothCharacteristic{char: char}, false, nil
}

func (c *bluetoothConnection) Subscribe(charUUID string, callback func([]byte)) error {
	c.mu.Lock()
	serviceUUID := c.serviceUUID
	c.mu.Unlock()
	if serviceUUID == "" {
		serviceUUID = ServiceUUID
	}
	char, err := c.discoverCharacteristic(serviceUUID, charUUID)
	if err != nil {
		return err
	}
	return char.EnableNotifications(func(buf []byte) {
		data := make([]byte, len(buf))
		copy(data, buf)
		callback(data)
	})
}

func (c *bluetoothConnection) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	c.mu.Unlock()
	return c.device.Disconnect()
}

func (c *bluetoothConnection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// setDisconnected records a link drop reported by the adapter's connect
// handler.
func (c *bluetoothConnection) setDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

var _ Connection = (*bluetoothConnection)(nil)

type bluetoothCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *bluetoothCharacteristic) Write(data []byte, withResponse bool) error {
	// tinygo's DeviceCharacteristic only offers unacknowledged writes, so
	// withResponse cannot be honored on this adapter. These controllers
	// accept write-without-response on 0xFFF3, which is all we need here.
	_, err := c.char.WriteWithoutResponse(data)
	return err
}
