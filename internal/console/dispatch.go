package console

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/placar/internal/ble/protocol"
	"github.com/chaz8081/placar/internal/scoreboard"
)

// actionDoneMsg reports that a queued action reached the session.
type actionDoneMsg struct {
	action protocol.Action
}

type queuedAction struct {
	action protocol.Action
	done   chan struct{}
}

// dispatcher runs session actions on one goroutine, in the order the keys
// were pressed, so a slow write never holds up the screen.
type dispatcher struct {
	session *scoreboard.Session
	timeout time.Duration

	start sync.Once
	wake  chan struct{}
	stop  chan struct{}

	mu      sync.Mutex
	queue   []queuedAction
	stopped bool
}

func newDispatcher(session *scoreboard.Session, timeout time.Duration) *dispatcher {
	return &dispatcher{
		session: session,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// enqueue queues a and returns a command that finishes once the session
// has handled it. It never blocks.
func (d *dispatcher) enqueue(a protocol.Action) tea.Cmd {
	d.start.Do(func() { go d.run() })

	item := queuedAction{action: a, done: make(chan struct{})}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.queue = append(d.queue, item)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}

	return func() tea.Msg {
		<-item.done
		return actionDoneMsg{action: a}
	}
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
		}
		for {
			item, ok := d.pop()
			if !ok {
				break
			}
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			// Failures reach the screen as notices.
			_ = d.session.Dispatch(ctx, item.action)
			cancel()
			close(item.done)
		}
	}
}

func (d *dispatcher) pop() (queuedAction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return queuedAction{}, false
	}
	item := d.queue[0]
	d.queue = d.queue[1:]
	return item, true
}

// pending returns the number of actions waiting for the worker.
func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// close stops the worker once the action in flight finishes. Queued
// actions are dropped and their commands released.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	close(d.stop)
	for _, item := range pending {
		close(item.done)
	}
}
