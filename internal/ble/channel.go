package ble

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/chaz8081/placar/internal/ble/protocol"
)

// HandleSource exposes the live handle, if any. *Manager implements it.
type HandleSource interface {
	Handle() *Handle
}

// CommandChannel writes opcodes to the connected scoreboard. One call, one
// write: no retry and no queueing.
type CommandChannel struct {
	source  HandleSource
	limiter *rate.Limiter // nil means writes go out unpaced
}

// NewCommandChannel creates a channel over source. A positive perSecond
// paces writes with a token bucket of the given burst; pacing delays writes,
// it never drops them.
func NewCommandChannel(source HandleSource, perSecond float64, burst int) *CommandChannel {
	c := &CommandChannel{source: source}
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return c
}

// SendCommand writes op to the control characteristic. It returns
// ErrNotConnected without touching the transport when no handle is live,
// and a *WriteError when the transport rejects the write.
func (c *CommandChannel) SendCommand(ctx context.Context, op protocol.Opcode) error {
	h := c.source.Handle()
	if h == nil || !h.Live() {
		slog.Warn("[BLE] command dropped, not connected", "opcode", op)
		return ErrNotConnected
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ble: pace %s: %w", op, err)
		}
	}

	if err := h.control.Write(op.Encode()); err != nil {
		slog.Warn("[BLE] command write failed", "opcode", op, "error", err)
		return &WriteError{Opcode: op, Err: err}
	}
	slog.Debug("[BLE] command sent", "opcode", op, "id", h.peripheral.ID)
	return nil
}
