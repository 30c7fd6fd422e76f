package ble

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/placar/internal/ble/protocol"
)

func newTestService(adapter *mockAdapter, granted bool) *Service {
	gate := PermissionFunc(func(context.Context) bool { return granted })
	opts := DefaultOptions()
	opts.ScanDuration = 30 * time.Millisecond
	return NewService(adapter, gate, opts)
}

func TestServiceDiscover(t *testing.T) {
	adapter := newMockAdapter(
		Peripheral{ID: "AA", Name: "Placar"},
		Peripheral{ID: "AA", Name: "Placar", RSSI: -40},
	)
	svc := newTestService(adapter, true)

	devices, err := svc.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "AA" {
		t.Errorf("Discover() = %+v, want one device AA", devices)
	}
	if svc.Scanner().Scanning() {
		t.Error("scan should be stopped once Discover returns")
	}
}

func TestServiceDiscoverPermissionDenied(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	svc := newTestService(adapter, false)

	_, err := svc.Discover(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Discover() error = %v, want ErrPermissionDenied", err)
	}
	if adapter.scanCount() != 0 {
		t.Error("no scan should start without permission")
	}
}

func TestServiceRescanDisconnectsFirst(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA", Name: "Placar"})
	svc := newTestService(adapter, true)
	ctx := context.Background()

	if _, err := svc.Discover(ctx); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if _, err := svc.ConnectID(ctx, "AA"); err != nil {
		t.Fatalf("ConnectID() error = %v", err)
	}

	if _, err := svc.Rescan(ctx); err != nil {
		t.Fatalf("Rescan() error = %v", err)
	}
	if _, ok := svc.CurrentDevice(); ok {
		t.Error("Rescan should leave no device connected")
	}
	if !adapter.latestConnection().isDisconnected() {
		t.Error("previous connection should be torn down")
	}
}

func TestServiceConnectUnknownID(t *testing.T) {
	svc := newTestService(newMockAdapter(), true)
	_, err := svc.ConnectID(context.Background(), "ZZ")
	if !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("ConnectID() error = %v, want ErrUnknownDevice", err)
	}
}

func TestServiceSendCommand(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA"})
	svc := newTestService(adapter, true)
	ctx := context.Background()

	if err := svc.SendCommand(ctx, protocol.OpReset); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SendCommand() before connect error = %v, want ErrNotConnected", err)
	}

	if _, err := svc.Connect(ctx, Peripheral{ID: "AA"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := svc.SendCommand(ctx, protocol.OpReset); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if n := adapter.latestConnection().control.writeCount(); n != 1 {
		t.Errorf("writes = %d, want 1", n)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := svc.CurrentDevice(); ok {
		t.Error("Close should disconnect")
	}
}

func TestAllGrantedStopsAtFirstDenial(t *testing.T) {
	asked := 0
	count := PermissionFunc(func(context.Context) bool { asked++; return true })
	deny := PermissionFunc(func(context.Context) bool { return false })

	if AllGranted(count, deny, count).RequestPermissions(context.Background()) {
		t.Error("AllGranted should deny when one gate denies")
	}
	if asked != 1 {
		t.Errorf("gates asked after denial: got %d calls, want 1", asked)
	}
}

func TestAdapterGate(t *testing.T) {
	adapter := newMockAdapter()
	if !(AdapterGate{Adapter: adapter}).RequestPermissions(context.Background()) {
		t.Error("AdapterGate should grant when Enable succeeds")
	}
	adapter.enableErr = errMockRadio
	if !(AdapterGate{Adapter: adapter}).RequestPermissions(context.Background()) {
		t.Error("AdapterGate should grant when the radio is off")
	}
}

func TestServiceDiscoverRadioOff(t *testing.T) {
	adapter := newMockAdapter(Peripheral{ID: "AA", Name: "Placar"})
	adapter.enableErr = errMockRadio
	opts := DefaultOptions()
	opts.ScanDuration = 5 * time.Second
	svc := NewService(adapter, AdapterGate{Adapter: adapter}, opts)

	start := time.Now()
	devices, err := svc.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v, want nil", err)
	}
	if len(devices) != 0 {
		t.Errorf("Discover() = %+v, want no devices", devices)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Discover() took %s, should end when the scan fails", elapsed)
	}
	if svc.Scanner().Scanning() {
		t.Error("scan should be stopped once Discover returns")
	}
}
