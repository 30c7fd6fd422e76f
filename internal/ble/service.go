package ble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/placar/internal/ble/protocol"
)

// Options configures a Service.
type Options struct {
	ServiceUUID     string        // advertised service to filter scans on, empty = no filter
	ControlCharUUID string        // characteristic receiving command bytes
	ScanDuration    time.Duration // how long Discover and Rescan listen
	WriteRate       float64       // max command writes per second, 0 = unpaced
	WriteBurst      int           // token bucket size when WriteRate > 0
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ServiceUUID:     DefaultServiceUUID,
		ControlCharUUID: DefaultControlCharUUID,
		ScanDuration:    5 * time.Second,
		WriteBurst:      1,
	}
}

// Controller is everything a control screen needs from the scoreboard link.
// Screens receive it by injection so tests can substitute a fake.
type Controller interface {
	Discover(ctx context.Context) ([]Peripheral, error)
	Rescan(ctx context.Context) ([]Peripheral, error)
	Connect(ctx context.Context, p Peripheral) (*Handle, error)
	Disconnect() error
	CurrentDevice() (Peripheral, bool)
	SendCommand(ctx context.Context, op protocol.Opcode) error
}

// Service bundles the permission gate, scanner, connection manager and
// command channel for one scoreboard.
type Service struct {
	gate    PermissionGate
	scanner *Scanner
	manager *Manager
	channel *CommandChannel
	opts    Options
}

var _ Controller = (*Service)(nil)

// NewService wires the BLE components over adapter.
func NewService(adapter Adapter, gate PermissionGate, opts Options) *Service {
	def := DefaultOptions()
	if opts.ControlCharUUID == "" {
		opts.ControlCharUUID = def.ControlCharUUID
	}
	if opts.ScanDuration <= 0 {
		opts.ScanDuration = def.ScanDuration
	}
	manager := NewManager(adapter, opts.ServiceUUID, opts.ControlCharUUID)
	return &Service{
		gate:    gate,
		scanner: NewScanner(adapter, opts.ServiceUUID),
		manager: manager,
		channel: NewCommandChannel(manager, opts.WriteRate, opts.WriteBurst),
		opts:    opts,
	}
}

// Scanner returns the underlying scanner.
func (s *Service) Scanner() *Scanner { return s.scanner }

// Manager returns the underlying connection manager.
func (s *Service) Manager() *Manager { return s.manager }

// Discover asks for permission, scans for the configured duration (or until
// ctx ends) and returns what was found. A radio that is off ends the scan
// early with nothing found and no error.
func (s *Service) Discover(ctx context.Context) ([]Peripheral, error) {
	if !s.gate.RequestPermissions(ctx) {
		return nil, ErrPermissionDenied
	}

	s.scanner.StartScan()
	timer := time.NewTimer(s.opts.ScanDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-s.scanner.ended():
	}
	s.scanner.StopScan()

	return s.scanner.Devices(), nil
}

// Rescan drops the current connection and discovers again.
func (s *Service) Rescan(ctx context.Context) ([]Peripheral, error) {
	if err := s.manager.Disconnect(); err != nil {
		// Local state is already cleared; the scan can go ahead.
		slog.Warn("[BLE] disconnect before rescan failed", "error", err)
	}
	return s.Discover(ctx)
}

// Connect links to p, replacing any current connection.
func (s *Service) Connect(ctx context.Context, p Peripheral) (*Handle, error) {
	s.scanner.StopScan()
	return s.manager.Connect(ctx, p)
}

// ConnectID links to a peripheral found by the last scan.
func (s *Service) ConnectID(ctx context.Context, id string) (*Handle, error) {
	p, ok := s.scanner.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("ble: %s: %w", id, ErrUnknownDevice)
	}
	return s.Connect(ctx, p)
}

// Disconnect closes the current connection, if any.
func (s *Service) Disconnect() error {
	return s.manager.Disconnect()
}

// CurrentDevice returns the connected peripheral, if any.
func (s *Service) CurrentDevice() (Peripheral, bool) {
	return s.manager.CurrentDevice()
}

// SendCommand writes one opcode to the connected scoreboard.
func (s *Service) SendCommand(ctx context.Context, op protocol.Opcode) error {
	return s.channel.SendCommand(ctx, op)
}

// Close stops any scan and disconnects.
func (s *Service) Close() error {
	s.scanner.StopScan()
	return s.manager.Disconnect()
}
