package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

var errAdapterDisabled = errors.New("ble: adapter not enabled")

// TinyGoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth on
// macOS, WinRT on Windows). Device identifiers are Address.String(): a MAC
// on Linux and Windows, a CoreBluetooth UUID on macOS.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects everything below.
	mu          sync.Mutex
	enabled     bool
	addresses   map[string]bluetooth.Address // learned from scans, keyed by id
	connections map[string]*tinygoConnection // keyed by id
}

// NewTinyGoAdapter creates a BLE adapter over the platform default adapter.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		addresses:   make(map[string]bluetooth.Address),
		connections: make(map[string]*tinygoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		return nil
	}
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// The adapter-level handler fires with connected=false when a
	// peripheral drops; route it to the matching connection.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		delete(a.connections, id)
		a.mu.Unlock()
		if ok {
			conn.fireDisconnect()
		}
	})

	a.enabled = true
	return nil
}

func (a *TinyGoAdapter) Scan(ctx context.Context, serviceUUID string, onResult func(Peripheral)) error {
	var filter *bluetooth.UUID
	if serviceUUID != "" {
		uuid, err := bluetooth.ParseUUID(serviceUUID)
		if err != nil {
			return fmt.Errorf("ble: parse service UUID: %w", err)
		}
		filter = &uuid
	}
	if err := ctx.Err(); err != nil {
		return nil
	}
	a.mu.Lock()
	enabled := a.enabled
	a.mu.Unlock()
	if !enabled {
		return errAdapterDisabled
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		// StopScan fails if Scan has not started yet; keep trying until
		// the scan loop is actually running and stops.
		for {
			if err := a.adapter.StopScan(); err == nil {
				return
			}
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if filter != nil && !result.HasServiceUUID(*filter) {
			return
		}
		id := result.Address.String()
		a.mu.Lock()
		a.addresses[id] = result.Address
		a.mu.Unlock()
		onResult(Peripheral{
			ID:   id,
			Name: result.LocalName(),
			RSSI: int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ble: scan: %w", err)
	}
	return nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, id string) (Connection, error) {
	a.mu.Lock()
	addr, ok := a.addresses[id]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ErrUnknownDevice)
	}

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// We wrap it to also respect our ctx cancellation.
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
		// The underlying Connect cannot be cancelled. If it completes
		// later, drop the link so it does not linger unowned.
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		conn := &tinygoConnection{id: id, device: &result.device, owner: a}

		a.mu.Lock()
		a.connections[id] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

func (a *TinyGoAdapter) forget(id string, conn *tinygoConnection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connections[id] == conn {
		delete(a.connections, id)
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinygoConnection struct {
	id     string
	device *bluetooth.Device
	owner  *TinyGoAdapter

	mu           sync.Mutex
	disconnectCb func()
	dropped      bool
}

// DiscoverCharacteristic finds charUUID inside serviceUUID, or inside any
// service when serviceUUID is empty.
func (c *tinygoConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	var svcFilter []bluetooth.UUID
	if serviceUUID != "" {
		svcUUID, err := bluetooth.ParseUUID(serviceUUID)
		if err != nil {
			return nil, err
		}
		svcFilter = []bluetooth.UUID{svcUUID}
	}
	charUUIDParsed, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices(svcFilter)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", serviceUUID)
	}

	for _, svc := range svcs {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{charUUIDParsed})
		if err != nil {
			slog.Debug("[BLE] discover characteristics failed", "service", svc.UUID().String(), "error", err)
			continue
		}
		if len(chars) > 0 {
			return &tinygoCharacteristic{char: &chars[0]}, nil
		}
	}
	return nil, fmt.Errorf("ble: characteristic %s not found", charUUID)
}

func (c *tinygoConnection) Disconnect() error {
	c.owner.forget(c.id, c)
	return c.device.Disconnect()
}

func (c *tinygoConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	dropped := c.dropped
	c.dropped = false
	c.mu.Unlock()
	if dropped {
		cb()
	}
}

// fireDisconnect runs the registered callback, or remembers the drop for
// the next OnDisconnect.
func (c *tinygoConnection) fireDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	if cb == nil {
		c.dropped = true
	}
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type tinygoCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *tinygoCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}
