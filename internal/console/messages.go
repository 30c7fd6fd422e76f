package console

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/placar/internal/backend"
	"github.com/chaz8081/placar/internal/ble"
	"github.com/chaz8081/placar/internal/scoreboard"
)

// refreshInterval is how often the screen re-reads the session.
const refreshInterval = 200 * time.Millisecond

// refreshMsg redraws the screen from the session.
type refreshMsg time.Time

// scanDoneMsg carries the result of a discovery run.
type scanDoneMsg struct {
	devices []ble.Peripheral
	err     error
}

// connectDoneMsg carries the result of a connect attempt.
type connectDoneMsg struct {
	device ble.Peripheral
	err    error
}

// gamesMsg carries the games list.
type gamesMsg struct {
	games []backend.Game
	err   error
}

// saveDoneMsg reports a finished save, optionally followed by a period
// advance.
type saveDoneMsg struct {
	advanced bool
	err      error
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// scanCmd discovers devices; rescan drops the current link first.
func scanCmd(link ble.Controller, rescan bool, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var (
			devices []ble.Peripheral
			err     error
		)
		if rescan {
			devices, err = link.Rescan(ctx)
		} else {
			devices, err = link.Discover(ctx)
		}
		return scanDoneMsg{devices: devices, err: err}
	}
}

func connectCmd(link ble.Controller, p ble.Peripheral, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := link.Connect(ctx, p)
		return connectDoneMsg{device: p, err: err}
	}
}

func gamesCmd(games GameLister, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		list, err := games.ListGames(ctx)
		return gamesMsg{games: list, err: err}
	}
}

func saveCmd(s *scoreboard.Session, advance bool, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if advance {
			return saveDoneMsg{advanced: true, err: s.SaveAndAdvance(ctx)}
		}
		return saveDoneMsg{err: s.Save(ctx)}
	}
}
