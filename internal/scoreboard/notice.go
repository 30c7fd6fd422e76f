package scoreboard

import (
	"fmt"
	"log/slog"
)

// Level is a notice's severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Notice is a non-blocking message for the operator. Failures in the
// session never stop it; they become notices.
type Notice struct {
	Level   Level
	Title   string
	Message string
	Err     error
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", n.Title, n.Message, n.Err)
	}
	return fmt.Sprintf("%s: %s", n.Title, n.Message)
}

// Notifier receives notices. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to slog.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	attrs := []any{"title", n.Title}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}
	switch n.Level {
	case LevelError:
		slog.Error("[SCORE] "+n.Message, attrs...)
	case LevelWarn:
		slog.Warn("[SCORE] "+n.Message, attrs...)
	default:
		slog.Info("[SCORE] "+n.Message, attrs...)
	}
}
