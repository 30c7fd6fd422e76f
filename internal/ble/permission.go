package ble

import (
	"context"
	"log/slog"
)

// PermissionGate obtains whatever the platform requires before a scan can
// run. A denial is a normal false result, never an error. Gates deny only
// when access is refused: a radio that is off or missing is granted and the
// scan simply finds nothing.
type PermissionGate interface {
	RequestPermissions(ctx context.Context) bool
}

// PermissionFunc adapts a function to PermissionGate.
type PermissionFunc func(ctx context.Context) bool

func (f PermissionFunc) RequestPermissions(ctx context.Context) bool { return f(ctx) }

// AdapterGate enables the adapter before a scan. An adapter that cannot be
// enabled is logged and the scan goes ahead with nothing to find.
type AdapterGate struct {
	Adapter Adapter
}

func (g AdapterGate) RequestPermissions(_ context.Context) bool {
	if err := g.Adapter.Enable(); err != nil {
		slog.Warn("[BLE] adapter unavailable, scan will find nothing", "error", err)
	}
	return true
}

// AllGranted grants permission only when every gate does, asking them in order
// and stopping at the first denial.
func AllGranted(gates ...PermissionGate) PermissionGate {
	return PermissionFunc(func(ctx context.Context) bool {
		for _, g := range gates {
			if !g.RequestPermissions(ctx) {
				return false
			}
		}
		return true
	})
}
