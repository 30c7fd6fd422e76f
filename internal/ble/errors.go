package ble

import (
	"errors"
	"fmt"

	"github.com/chaz8081/placar/internal/ble/protocol"
)

var (
	// ErrNotConnected is returned when a command is sent with no live connection.
	ErrNotConnected = errors.New("ble: not connected")
	// ErrPermissionDenied is returned when the radio permissions were not granted.
	ErrPermissionDenied = errors.New("ble: permission denied")
	// ErrConnectionLost is returned when the link drops while it is being set up.
	ErrConnectionLost = errors.New("ble: connection lost")
	// ErrUnknownDevice is returned when a device id was not seen by the last scan.
	ErrUnknownDevice = errors.New("ble: unknown device")
)

// WriteError reports a command the transport rejected.
type WriteError struct {
	Opcode protocol.Opcode
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ble: write %s: %v", e.Opcode, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
