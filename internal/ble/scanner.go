package ble

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// stopWait bounds how long StopScan waits for the adapter's scan loop to exit.
const stopWait = 2 * time.Second

// Scanner runs passive discovery sessions and collects peripherals into a
// Registry. It has no timeout of its own: callers decide how long a scan
// lasts (see Service.Discover).
type Scanner struct {
	adapter     Adapter
	serviceUUID string
	registry    *Registry

	mu       sync.Mutex
	scanning bool
	session  uint64 // incremented per StartScan/StopScan to fence stale callbacks
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScanner creates a scanner that reports peripherals advertising
// serviceUUID (every peripheral when serviceUUID is empty).
func NewScanner(adapter Adapter, serviceUUID string) *Scanner {
	return &Scanner{
		adapter:     adapter,
		serviceUUID: serviceUUID,
		registry:    NewRegistry(),
	}
}

// StartScan clears the registry and begins discovery in the background.
// Calling it while a scan is running is a no-op. An unavailable radio
// yields an empty result, the same as an empty room.
func (s *Scanner) StartScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return
	}

	s.registry.Clear()
	s.session++
	session := s.session
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.scanning = true
	s.cancel = cancel
	s.done = done

	slog.Info("[BLE] scan started", "service", s.serviceUUID)

	go func() {
		defer close(done)
		err := s.adapter.Scan(ctx, s.serviceUUID, func(p Peripheral) {
			s.observe(session, p)
		})
		if err != nil {
			slog.Warn("[BLE] scan ended with error", "error", err)
		}

		s.mu.Lock()
		if s.session == session {
			s.scanning = false
		}
		s.mu.Unlock()
	}()
}

func (s *Scanner) observe(session uint64, p Peripheral) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != session || !s.scanning {
		return
	}
	if s.registry.Observe(p) {
		slog.Info("[BLE] discovered", "id", p.ID, "name", p.Name, "rssi", p.RSSI)
	} else {
		slog.Debug("[BLE] advertisement", "id", p.ID, "rssi", p.RSSI)
	}
}

// StopScan ends discovery. Peripherals already collected are kept. Safe to
// call when not scanning.
func (s *Scanner) StopScan() {
	s.mu.Lock()
	if !s.scanning {
		s.mu.Unlock()
		return
	}
	s.scanning = false
	s.session++
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopWait):
		slog.Warn("[BLE] scan loop did not stop in time")
	}
	slog.Info("[BLE] scan stopped", "devices", s.registry.Len())
}

// ended is closed when the current scan loop exits, for instance because
// the radio is off. It is nil when no scan is running.
func (s *Scanner) ended() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Scanning reports whether a scan session is active.
func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Devices returns the peripherals found by the current or last scan.
func (s *Scanner) Devices() []Peripheral {
	return s.registry.Snapshot()
}

// Lookup returns a peripheral found by the current or last scan.
func (s *Scanner) Lookup(id string) (Peripheral, bool) {
	return s.registry.Lookup(id)
}
