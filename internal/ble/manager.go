package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the connection manager's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handle is the single live link to a scoreboard. Only the Manager creates
// and closes handles; everyone else reads them.
type Handle struct {
	peripheral Peripheral
	conn       Connection
	control    Characteristic
	live       atomic.Bool
}

// Peripheral returns the descriptor the handle was established from.
func (h *Handle) Peripheral() Peripheral { return h.peripheral }

// Live reports whether the link is still open.
func (h *Handle) Live() bool { return h.live.Load() }

// StateHandler observes connection state transitions. p is the device the
// transition concerns.
type StateHandler func(state State, p Peripheral)

// Manager owns at most one Handle at a time.
type Manager struct {
	adapter         Adapter
	serviceUUID     string
	controlCharUUID string

	// opMu serializes Connect and Disconnect.
	opMu sync.Mutex
	// notifyMu keeps state changes and their notifications in one order.
	notifyMu sync.Mutex

	// mu protects the fields below.
	mu       sync.Mutex
	state    State
	handle   *Handle
	onChange StateHandler
}

// NewManager creates a connection manager that writes commands to
// controlCharUUID inside serviceUUID.
func NewManager(adapter Adapter, serviceUUID, controlCharUUID string) *Manager {
	return &Manager{
		adapter:         adapter,
		serviceUUID:     serviceUUID,
		controlCharUUID: controlCharUUID,
	}
}

// OnStateChange registers the handler notified on every transition,
// including drops the hardware initiates. fn must not call Connect or
// Disconnect.
func (m *Manager) OnStateChange(fn StateHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Connect tears down any existing handle, then links to p. On failure no
// handle is stored and the manager is back to idle.
func (m *Manager) Connect(ctx context.Context, p Peripheral) (*Handle, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.teardown(); err != nil {
		slog.Warn("[BLE] disconnect before connect failed", "error", err)
	}

	m.setState(StateConnecting, p)
	slog.Info("[BLE] connecting", "id", p.ID, "name", p.Name)

	conn, err := m.adapter.Connect(ctx, p.ID)
	if err != nil {
		m.setState(StateIdle, p)
		return nil, fmt.Errorf("ble: connect to %s: %w", p.ID, err)
	}

	control, err := conn.DiscoverCharacteristic(m.serviceUUID, m.controlCharUUID)
	if err != nil {
		_ = conn.Disconnect()
		m.setState(StateIdle, p)
		return nil, fmt.Errorf("ble: discover control characteristic: %w", err)
	}

	h := &Handle{peripheral: p, conn: conn, control: control}
	h.live.Store(true)
	conn.OnDisconnect(func() { m.handleDrop(h) })

	published := m.transition(StateConnected, p, func() bool {
		if !h.Live() {
			return false
		}
		m.handle = h
		return true
	})
	if !published {
		_ = conn.Disconnect()
		m.setState(StateIdle, p)
		return nil, fmt.Errorf("ble: connect to %s: %w", p.ID, ErrConnectionLost)
	}
	slog.Info("[BLE] connected", "id", p.ID, "name", p.Name)
	return h, nil
}

// Disconnect closes the current handle, if any. Local state is cleared even
// when the hardware-side teardown fails; that failure is returned.
func (m *Manager) Disconnect() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.teardown()
}

// teardown closes the current handle (caller must hold opMu).
func (m *Manager) teardown() error {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	h.live.Store(false)
	err := h.conn.Disconnect()
	m.setState(StateIdle, h.peripheral)
	slog.Info("[BLE] disconnected", "id", h.peripheral.ID)
	if err != nil {
		return fmt.Errorf("ble: disconnect %s: %w", h.peripheral.ID, err)
	}
	return nil
}

// handleDrop runs when the hardware ends the link on its own.
func (m *Manager) handleDrop(h *Handle) {
	if !h.live.CompareAndSwap(true, false) {
		return // we closed it ourselves
	}

	slog.Warn("[BLE] connection lost", "id", h.peripheral.ID)
	m.transition(StateIdle, h.peripheral, func() bool {
		if m.handle != h {
			return false
		}
		m.handle = nil
		return true
	})
}

func (m *Manager) setState(s State, p Peripheral) {
	m.transition(s, p, nil)
}

// transition moves to s when apply (run under mu) allows it, and notifies
// the handler. It reports whether the move happened.
func (m *Manager) transition(s State, p Peripheral, apply func() bool) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if apply != nil && !apply() {
		m.mu.Unlock()
		return false
	}
	m.state = s
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(s, p)
	}
	return true
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the live handle, or nil.
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// CurrentDevice returns the connected peripheral, if any.
func (m *Manager) CurrentDevice() (Peripheral, bool) {
	h := m.Handle()
	if h == nil || !h.Live() {
		return Peripheral{}, false
	}
	return h.peripheral, true
}
