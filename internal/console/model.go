// Package console is the terminal control screen: it finds and connects to
// a scoreboard, then turns key presses into scoreboard actions.
package console

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/placar/internal/backend"
	"github.com/chaz8081/placar/internal/ble"
	"github.com/chaz8081/placar/internal/ble/protocol"
	"github.com/chaz8081/placar/internal/scoreboard"
)

// GameLister lists the games a session can be bound to.
type GameLister interface {
	ListGames(ctx context.Context) ([]backend.Game, error)
}

type screen int

const (
	screenDevices screen = iota
	screenControl
	screenGames
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmReset
	confirmPeriod
)

// Options configures a Model.
type Options struct {
	Link        ble.Controller
	Session     *scoreboard.Session
	Games       GameLister // nil hides the games screen
	Notices     *NoticeQueue
	ScanTimeout time.Duration // upper bound for one discovery run
	OpTimeout   time.Duration // connect, save, games and command writes
}

// Model is the root Bubble Tea model.
type Model struct {
	opts Options

	screen  screen
	confirm confirmKind
	busy    string

	devices      []ble.Peripheral
	deviceCursor int
	games        []backend.Game
	gameCursor   int

	state     scoreboard.State
	device    ble.Peripheral
	connected bool
	notice    *scoreboard.Notice

	actions *dispatcher

	width int
}

// New creates the control screen model.
func New(opts Options) Model {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 15 * time.Second
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 10 * time.Second
	}
	if opts.Notices == nil {
		opts.Notices = NewNoticeQueue(8)
	}
	m := Model{opts: opts, screen: screenDevices, busy: "Scanning..."}
	if opts.Session != nil {
		m.actions = newDispatcher(opts.Session, opts.OpTimeout)
	}
	m.sync()
	return m
}

// Close stops the action worker. Call it once the program has exited.
func (m Model) Close() {
	if m.actions != nil {
		m.actions.close()
	}
}

// Init starts the refresh loop and the first discovery run.
func (m Model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(), scanCmd(m.opts.Link, false, m.opts.ScanTimeout))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshMsg:
		m.sync()
		return m, refreshCmd()

	case scanDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.fail("Scan failed", scanErrorText(msg.err), msg.err)
			return m, nil
		}
		m.devices = msg.devices
		m.deviceCursor = 0
		if len(m.devices) == 0 {
			m.info("Scan finished", "No scoreboard found. Check that Bluetooth is on, then press s to search again.")
		}
		return m, nil

	case connectDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.fail("Connect failed", "Could not connect to "+msg.device.DisplayName()+".", msg.err)
			return m, nil
		}
		m.info("Connected", msg.device.DisplayName())
		m.screen = screenControl
		m.sync()
		return m, nil

	case gamesMsg:
		m.busy = ""
		if msg.err != nil {
			m.fail("Games unavailable", "Could not load games.", msg.err)
			m.screen = screenControl
			return m, nil
		}
		m.games = msg.games
		m.gameCursor = 0
		return m, nil

	case saveDoneMsg:
		m.busy = ""
		m.sync()
		return m, nil

	case actionDoneMsg:
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm != confirmNone {
		return m.handleConfirm(key)
	}

	switch m.screen {
	case screenDevices:
		return m.handleDevicesKey(key)
	case screenGames:
		return m.handleGamesKey(key)
	default:
		return m.handleControlKey(key)
	}
}

func (m Model) handleDevicesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.deviceCursor > 0 {
			m.deviceCursor--
		}
	case "down", "j":
		if m.deviceCursor < len(m.devices)-1 {
			m.deviceCursor++
		}
	case "s":
		cmd := m.startScan(true)
		return m, cmd
	case "enter":
		if m.busy != "" || len(m.devices) == 0 {
			return m, nil
		}
		p := m.devices[m.deviceCursor]
		m.busy = "Connecting to " + p.DisplayName() + "..."
		return m, connectCmd(m.opts.Link, p, m.opts.OpTimeout)
	case "tab":
		m.screen = screenControl
	}
	return m, nil
}

func (m Model) handleGamesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.screen = screenControl
	case "up", "k":
		if m.gameCursor > 0 {
			m.gameCursor--
		}
	case "down", "j":
		if m.gameCursor < len(m.games)-1 {
			m.gameCursor++
		}
	case "enter":
		if len(m.games) == 0 {
			return m, nil
		}
		m.opts.Session.BindGame(m.games[m.gameCursor])
		m.screen = screenControl
		m.sync()
	}
	return m, nil
}

func (m Model) handleControlKey(key string) (tea.Model, tea.Cmd) {
	if key == "space" {
		key = " "
	}
	if a, ok := controlKeys[key]; ok {
		return m, m.dispatch(a)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.screen = screenDevices
	case "r":
		m.confirm = confirmReset
	case "p":
		m.confirm = confirmPeriod
	case "w":
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Saving..."
		return m, saveCmd(m.opts.Session, false, m.opts.OpTimeout)
	case "g":
		if m.opts.Games == nil {
			m.info("Games", "No backend configured.")
			return m, nil
		}
		m.screen = screenGames
		m.busy = "Loading games..."
		return m, gamesCmd(m.opts.Games, m.opts.OpTimeout)
	}
	return m, nil
}

// handleConfirm resolves a pending prompt. For a period change, y saves
// first and advances only if the save worked, f advances without saving.
func (m Model) handleConfirm(key string) (tea.Model, tea.Cmd) {
	kind := m.confirm
	m.confirm = confirmNone

	switch {
	case kind == confirmReset && key == "y":
		return m, m.dispatch(protocol.ActionReset)
	case kind == confirmPeriod && key == "y":
		m.busy = "Saving..."
		return m, saveCmd(m.opts.Session, true, m.opts.OpTimeout)
	case kind == confirmPeriod && key == "f":
		return m, m.dispatch(protocol.ActionAdvancePeriod)
	}
	return m, nil
}

// dispatch hands a to the action worker. Opcodes go out in key order;
// failures arrive as notices.
func (m *Model) dispatch(a protocol.Action) tea.Cmd {
	if m.actions == nil {
		return nil
	}
	return m.actions.enqueue(a)
}

func (m *Model) startScan(rescan bool) tea.Cmd {
	if m.busy != "" {
		return nil
	}
	m.busy = "Scanning..."
	m.screen = screenDevices
	return scanCmd(m.opts.Link, rescan, m.opts.ScanTimeout)
}

// sync copies the session, link and notice state into the model.
func (m *Model) sync() {
	if m.opts.Session != nil {
		m.state = m.opts.Session.Snapshot()
	}
	if m.opts.Link != nil {
		m.device, m.connected = m.opts.Link.CurrentDevice()
	}
	if n, ok := m.opts.Notices.drain(); ok {
		m.notice = &n
	}
}

func (m *Model) info(title, message string) {
	m.notice = &scoreboard.Notice{Level: scoreboard.LevelInfo, Title: title, Message: message}
}

func (m *Model) fail(title, message string, err error) {
	m.opts.Notices.Notify(scoreboard.Notice{Level: scoreboard.LevelError, Title: title, Message: message, Err: err})
	m.sync()
}

func scanErrorText(err error) string {
	if errors.Is(err, ble.ErrPermissionDenied) {
		return "Bluetooth permission was denied."
	}
	return "Could not scan for scoreboards."
}
