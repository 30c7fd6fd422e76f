//go:build linux

package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBusName      = "org.bluez"
	bluezAdapterIface = "org.bluez.Adapter1"
	dbusPropsIface    = "org.freedesktop.DBus.Properties"
	dbusAccessDenied  = "org.freedesktop.DBus.Error.AccessDenied"

	// DefaultAdapterPath is the BlueZ object path of the first HCI adapter.
	DefaultAdapterPath = "/org/bluez/hci0"
)

// BlueZGate checks over the system D-Bus that bluetoothd is running and the
// adapter is powered. With PowerOn set it powers a powered-off adapter.
// It denies only when the bus refuses access; a stopped daemon or an
// unpowered adapter is logged and granted.
type BlueZGate struct {
	AdapterPath dbus.ObjectPath
	PowerOn     bool
}

func (g BlueZGate) RequestPermissions(ctx context.Context) bool {
	powered, err := g.check(ctx)
	switch {
	case accessDenied(err):
		slog.Warn("[BLE] bluetooth access denied", "error", err)
		return false
	case err != nil:
		slog.Warn("[BLE] bluetooth unavailable, scan will find nothing", "error", err)
	case !powered:
		slog.Warn("[BLE] adapter is powered off, scan will find nothing", "adapter", g.path())
	}
	return true
}

// accessDenied reports whether err is a D-Bus AccessDenied reply.
func accessDenied(err error) bool {
	if err == nil {
		return false
	}
	var de dbus.Error
	if errors.As(err, &de) {
		return de.Name == dbusAccessDenied
	}
	var dp *dbus.Error
	return errors.As(err, &dp) && dp.Name == dbusAccessDenied
}

func (g BlueZGate) path() dbus.ObjectPath {
	if g.AdapterPath == "" {
		return DefaultAdapterPath
	}
	return g.AdapterPath
}

func (g BlueZGate) check(ctx context.Context) (bool, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("connect to system bus: %w", err)
	}
	defer conn.Close()

	var names []string
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return false, fmt.Errorf("list bus names: %w", err)
	}
	if !hasName(names, bluezBusName) {
		return false, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
	}

	obj := conn.Object(bluezBusName, g.path())
	var v dbus.Variant
	if err := obj.CallWithContext(ctx, dbusPropsIface+".Get", 0, bluezAdapterIface, "Powered").Store(&v); err != nil {
		return false, fmt.Errorf("read Powered: %w", err)
	}
	powered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property Powered is not bool")
	}
	if powered || !g.PowerOn {
		return powered, nil
	}

	slog.Info("[BLE] powering on adapter", "adapter", g.path())
	if err := obj.CallWithContext(ctx, dbusPropsIface+".Set", 0, bluezAdapterIface, "Powered", dbus.MakeVariant(true)).Err; err != nil {
		slog.Warn("[BLE] power on failed", "adapter", g.path(), "error", err)
		return false, nil
	}
	return true, nil
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// DefaultPermissionGate checks BlueZ and then enables the adapter.
func DefaultPermissionGate(adapter Adapter, powerOn bool) PermissionGate {
	return AllGranted(BlueZGate{PowerOn: powerOn}, AdapterGate{Adapter: adapter})
}
