package ble

import (
	"testing"
)

func TestRegistryDeduplicatesByID(t *testing.T) {
	r := NewRegistry()

	observations := []Peripheral{
		{ID: "AA", Name: "Placar-1", RSSI: -70},
		{ID: "BB", Name: "Placar-2", RSSI: -80},
		{ID: "AA", Name: "Placar-1", RSSI: -60},
		{ID: "CC", RSSI: -90},
		{ID: "BB", Name: "Placar-2b", RSSI: -75},
		{ID: "AA", Name: "Placar-1", RSSI: -55},
	}
	for _, p := range observations {
		r.Observe(p)
	}

	got := r.Snapshot()
	want := []Peripheral{
		{ID: "AA", Name: "Placar-1", RSSI: -55},
		{ID: "BB", Name: "Placar-2b", RSSI: -75},
		{ID: "CC", RSSI: -90},
	}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRegistryObserveReportsNew(t *testing.T) {
	r := NewRegistry()
	if !r.Observe(Peripheral{ID: "AA"}) {
		t.Error("first Observe should report a new entry")
	}
	if r.Observe(Peripheral{ID: "AA", RSSI: -10}) {
		t.Error("second Observe of the same id should not report a new entry")
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", r.Len())
	}
}

func TestScannerCollectsUniqueDevices(t *testing.T) {
	adapter := newMockAdapter(
		Peripheral{ID: "AA", Name: "Placar", RSSI: -70},
		Peripheral{ID: "AA", Name: "Placar", RSSI: -50},
		Peripheral{ID: "BB", Name: "Outro", RSSI: -80},
	)
	s := NewScanner(adapter, DefaultServiceUUID)

	s.StartScan()
	waitFor(t, "two devices", func() bool { return len(s.Devices()) == 2 })
	waitFor(t, "refreshed RSSI", func() bool {
		p, _ := s.Lookup("AA")
		return p.RSSI == -50
	})
	s.StopScan()

	if s.Scanning() {
		t.Error("Scanning() should be false after StopScan")
	}
	if got := len(s.Devices()); got != 2 {
		t.Errorf("devices kept after StopScan = %d, want 2", got)
	}
}

func TestScannerStartIsIdempotent(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	s := NewScanner(adapter, "")

	s.StartScan()
	s.StartScan()
	waitFor(t, "scan running", func() bool { return adapter.scanCount() == 1 })
	s.StopScan()

	if adapter.scanCount() != 1 {
		t.Errorf("adapter scans = %d, want 1", adapter.scanCount())
	}
}

func TestScannerStopWhenIdleIsSafe(t *testing.T) {
	s := NewScanner(newMockAdapter(), "")
	s.StopScan()
	s.StopScan()
	if s.Scanning() {
		t.Error("Scanning() should be false")
	}
}

func TestScannerIgnoresCallbacksAfterStop(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	s := NewScanner(adapter, "")

	s.StartScan()
	waitFor(t, "first device", func() bool { return len(s.Devices()) == 1 })
	s.StopScan()

	// A late advertisement from the finished session must not land.
	adapter.lastScanCallback()(Peripheral{ID: "LATE"})
	if _, ok := s.Lookup("LATE"); ok {
		t.Error("advertisement delivered after StopScan was recorded")
	}
}

func TestScannerClearsRegistryPerSession(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	s := NewScanner(adapter, "")

	s.StartScan()
	waitFor(t, "first session", func() bool { return len(s.Devices()) == 1 })
	s.StopScan()

	adapter.mu.Lock()
	adapter.ads = []Peripheral{{ID: "BB"}}
	adapter.mu.Unlock()

	s.StartScan()
	waitFor(t, "second session", func() bool {
		_, ok := s.Lookup("BB")
		return ok
	})
	s.StopScan()

	if _, ok := s.Lookup("AA"); ok {
		t.Error("entry from the previous session survived a new scan")
	}
}

func TestScannerRadioUnavailableYieldsNothing(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	adapter.scanErr = errMockRadio
	s := NewScanner(adapter, "")

	s.StartScan()
	waitFor(t, "scan to end", func() bool { return !s.Scanning() })
	s.StopScan()

	if got := len(s.Devices()); got != 0 {
		t.Errorf("devices with radio off = %d, want 0", got)
	}
}
