package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mockCharacteristic records writes and can be told to fail them.
type mockCharacteristic struct {
	mu      sync.Mutex
	writes  [][]byte
	failErr error
}

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) failWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

func (c *mockCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// mockConnection simulates a BLE connection.
type mockConnection struct {
	id      string
	adapter *mockAdapter
	control *mockCharacteristic

	mu            sync.Mutex
	disconnectCb  func()
	dropped       bool // dropped before a callback was registered
	disconnected  bool
	disconnectErr error
	discoverErr   error
}

func (c *mockConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	if hook := c.adapter.discoverHookFn(); hook != nil {
		hook(c)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	if charUUID != DefaultControlCharUUID {
		return nil, fmt.Errorf("mock: unknown characteristic UUID %q", charUUID)
	}
	return c.control, nil
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	c.disconnected = true
	err := c.disconnectErr
	c.mu.Unlock()
	c.adapter.record("disconnect:" + c.id)
	return err
}

func (c *mockConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	dropped := c.dropped
	c.dropped = false
	c.mu.Unlock()
	if dropped {
		cb()
	}
}

func (c *mockConnection) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// SimulateDisconnect triggers the disconnect callback, as a device powering
// off or walking out of range would.
func (c *mockConnection) SimulateDisconnect() {
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

// mockAdapter simulates the BLE adapter.
type mockAdapter struct {
	mu          sync.Mutex
	enableErr   error
	scanErr     error
	ads         []Peripheral
	scanCalls   int
	onResult    func(Peripheral) // callback of the most recent scan
	connectErrs map[string]error
	connections map[string]*mockConnection
	latest      *mockConnection
	events      []string

	// discoverHook runs at the start of every DiscoverCharacteristic.
	discoverHook func(c *mockConnection)
}

func newMockAdapter(ads ...Peripheral) *mockAdapter {
	return &mockAdapter{
		ads:         ads,
		connectErrs: make(map[string]error),
		connections: make(map[string]*mockConnection),
	}
}

func (a *mockAdapter) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enableErr
}

// Scan delivers the scripted advertisements, then blocks until ctx ends.
func (a *mockAdapter) Scan(ctx context.Context, _ string, onResult func(Peripheral)) error {
	a.mu.Lock()
	a.scanCalls++
	a.onResult = onResult
	ads := append([]Peripheral(nil), a.ads...)
	err := a.scanErr
	if a.enableErr != nil {
		err = a.enableErr
	}
	a.mu.Unlock()

	if err != nil {
		return err
	}
	for _, p := range ads {
		onResult(p)
	}
	<-ctx.Done()
	return nil
}

func (a *mockAdapter) Connect(_ context.Context, id string) (Connection, error) {
	a.mu.Lock()
	err := a.connectErrs[id]
	a.mu.Unlock()
	if err != nil {
		a.record("connect-failed:" + id)
		return nil, err
	}

	conn := &mockConnection{id: id, adapter: a, control: &mockCharacteristic{}}
	a.mu.Lock()
	a.connections[id] = conn
	a.latest = conn
	a.mu.Unlock()
	a.record("connect:" + id)
	return conn, nil
}

func (a *mockAdapter) discoverHookFn() func(c *mockConnection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.discoverHook
}

func (a *mockAdapter) record(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *mockAdapter) eventLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

// latestConnection returns the most recently created connection (thread-safe).
func (a *mockAdapter) latestConnection() *mockConnection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

func (a *mockAdapter) scanCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scanCalls
}

// lastScanCallback returns the callback handed to the most recent Scan.
func (a *mockAdapter) lastScanCallback() func(Peripheral) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onResult
}

var errMockRadio = errors.New("mock: radio off")

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMockAdapterImplementsInterface(t *testing.T) {
	var _ Adapter = (*mockAdapter)(nil)
}

func TestMockConnectionImplementsInterface(t *testing.T) {
	var _ Connection = (*mockConnection)(nil)
}

func TestMockCharacteristicImplementsInterface(t *testing.T) {
	var _ Characteristic = (*mockCharacteristic)(nil)
}
