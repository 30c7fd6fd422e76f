//go:build linux

package ble

import (
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestAccessDenied(t *testing.T) {
	denied := dbus.Error{Name: dbusAccessDenied}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"access denied", denied, true},
		{"wrapped access denied", fmt.Errorf("read Powered: %w", denied), true},
		{"pointer access denied", &denied, true},
		{"unknown object", dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}, false},
		{"no system bus", errors.New("dial unix /var/run/dbus/system_bus_socket: no such file"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := accessDenied(tt.err); got != tt.want {
				t.Errorf("accessDenied(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
