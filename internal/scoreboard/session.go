package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chaz8081/placar/internal/backend"
	"github.com/chaz8081/placar/internal/ble"
	"github.com/chaz8081/placar/internal/ble/protocol"
)

// DefaultTickInterval is how often a running clock advances one second.
const DefaultTickInterval = time.Second

var (
	// ErrNoGame is returned by Save when no game has been bound.
	ErrNoGame = errors.New("scoreboard: no game bound")
	// ErrNoRecorder is returned by Save when the session has no backend.
	ErrNoRecorder = errors.New("scoreboard: no backend configured")
)

// Commander delivers one opcode to the scoreboard.
type Commander interface {
	SendCommand(ctx context.Context, op protocol.Opcode) error
}

// Recorder persists score records.
type Recorder interface {
	CreateScore(ctx context.Context, rec backend.ScoreRecord) (backend.ScoreRecord, error)
	UpdateScore(ctx context.Context, id int64, rec backend.ScoreRecord) (backend.ScoreRecord, error)
}

// Options configures a Session.
type Options struct {
	TickInterval time.Duration
	Notifier     Notifier // defaults to LogNotifier
	Recorder     Recorder // nil disables Save
}

// Session is the local mirror of one match. Every operator action updates
// the local state first and then sends exactly one opcode. A failed send is
// reported as a notice and the local change stays: the display and the
// hardware are allowed to drift.
type Session struct {
	cmd      Commander
	rec      Recorder
	notifier Notifier
	interval time.Duration

	// actMu keeps each action's mutate-then-send sequence whole.
	actMu sync.Mutex
	// saveMu keeps one save in flight so a period is never created twice.
	saveMu sync.Mutex

	// mu protects the fields below.
	mu        sync.Mutex
	state     State
	game      backend.Game
	rev       uint64 // bumped on every persisted-field change
	periodRev uint64 // bumped whenever the record being edited changes
	recordID  int64  // id_placar of the current period's record
	stopTick  chan struct{}
	closed    bool
}

// NewSession creates a session in its default state that sends opcodes
// through cmd.
func NewSession(cmd Commander, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	return &Session{
		cmd:      cmd,
		rec:      opts.Recorder,
		notifier: opts.Notifier,
		interval: opts.TickInterval,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Saved reports whether the counters match the last successful save.
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Saved
}

// Game returns the bound game, if any.
func (s *Session) Game() (backend.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game, s.state.GameID != 0
}

// Dispatch performs one operator action.
func (s *Session) Dispatch(ctx context.Context, a protocol.Action) error {
	switch a {
	case protocol.ActionReset:
		return s.Reset(ctx)
	case protocol.ActionAdvancePeriod:
		return s.AdvancePeriod(ctx)
	}
	if m, ok := protocol.PresetMinutes(a); ok {
		return s.SelectPreset(ctx, m)
	}

	mutate, dirty := counterMutation(a)
	if mutate == nil {
		return fmt.Errorf("scoreboard: unsupported action %s", a)
	}
	return s.apply(ctx, a, dirty, mutate)
}

// counterMutation returns the local effect of a team, clock or alarm action
// and whether it changes persisted fields.
func counterMutation(a protocol.Action) (func(*State), bool) {
	switch a {
	case protocol.ActionTeamAPointUp:
		return func(st *State) { st.A.Points = nextPoints(st.A.Points) }, true
	case protocol.ActionTeamAPointDown:
		return func(st *State) { st.A.Points = decrement(st.A.Points) }, true
	case protocol.ActionTeamBPointUp:
		return func(st *State) { st.B.Points = nextPoints(st.B.Points) }, true
	case protocol.ActionTeamBPointDown:
		return func(st *State) { st.B.Points = decrement(st.B.Points) }, true
	case protocol.ActionTeamAFoul:
		return func(st *State) { st.A.Fouls = nextFouls(st.A.Fouls) }, true
	case protocol.ActionTeamBFoul:
		return func(st *State) { st.B.Fouls = nextFouls(st.B.Fouls) }, true
	case protocol.ActionTeamATimeout:
		return func(st *State) { st.A.Timeouts = nextTimeouts(st.A.Timeouts) }, true
	case protocol.ActionTeamBTimeout:
		return func(st *State) { st.B.Timeouts = nextTimeouts(st.B.Timeouts) }, true
	case protocol.ActionTeamAServe:
		return func(st *State) { st.A.Serving = !st.A.Serving }, false
	case protocol.ActionTeamBServe:
		return func(st *State) { st.B.Serving = !st.B.Serving }, false
	case protocol.ActionClockToggle:
		return func(st *State) { st.Running = !st.Running }, false
	case protocol.ActionAlarmToggle:
		return func(st *State) { st.Alarm = !st.Alarm }, false
	}
	return nil, false
}

// ToggleClock starts or pauses the clock.
func (s *Session) ToggleClock(ctx context.Context) error {
	return s.Dispatch(ctx, protocol.ActionClockToggle)
}

// SelectPreset loads a countdown of the given length and stops the clock.
func (s *Session) SelectPreset(ctx context.Context, minutes int) error {
	a, ok := protocol.PresetAction(minutes)
	if !ok {
		return fmt.Errorf("scoreboard: no preset for %d minutes", minutes)
	}
	return s.apply(ctx, a, false, func(st *State) {
		st.Seconds = minutes * 60
		st.Countdown = true
		st.Running = false
	})
}

// AdvancePeriod moves to the next period label, wrapping after the last.
// The next save starts a new record.
func (s *Session) AdvancePeriod(ctx context.Context) error {
	return s.apply(ctx, protocol.ActionAdvancePeriod, true, func(st *State) {
		st.Period = (st.Period + 1) % len(Periods)
		s.forgetRecordLocked()
	})
}

// Reset returns every counter, flag, the clock and the period to their
// defaults. The bound game is kept.
func (s *Session) Reset(ctx context.Context) error {
	return s.apply(ctx, protocol.ActionReset, true, func(st *State) {
		*st = State{GameID: st.GameID}
		s.forgetRecordLocked()
	})
}

// apply runs mutate under the state lock, then sends a's opcode once.
func (s *Session) apply(ctx context.Context, a protocol.Action, dirty bool, mutate func(*State)) error {
	s.actMu.Lock()
	defer s.actMu.Unlock()

	s.mu.Lock()
	mutate(&s.state)
	if dirty {
		s.markDirtyLocked()
	}
	s.syncTickerLocked()
	s.mu.Unlock()

	return s.send(ctx, a)
}

func (s *Session) send(ctx context.Context, a protocol.Action) error {
	op := a.Opcode()
	err := s.cmd.SendCommand(ctx, op)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ble.ErrNotConnected):
		s.notifier.Notify(Notice{
			Level:   LevelWarn,
			Title:   "Not connected",
			Message: "Connect to a scoreboard first.",
			Err:     err,
		})
	default:
		s.notifier.Notify(Notice{
			Level:   LevelWarn,
			Title:   "Command failed",
			Message: fmt.Sprintf("Scoreboard did not accept %s (%s).", a, op),
			Err:     err,
		})
	}
	return err
}

// Amend overwrites a team's counters without touching the hardware, for
// correcting the display by hand. Values are clamped to their bounds.
func (s *Session) Amend(t Team, c Counters) {
	s.actMu.Lock()
	defer s.actMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Team(t).Counters = c.clamp()
	s.markDirtyLocked()
}

// BindGame selects the game saves are recorded against.
func (s *Session) BindGame(g backend.Game) {
	s.mu.Lock()
	if g.ID != s.state.GameID {
		s.state.GameID = g.ID
		s.forgetRecordLocked()
		s.markDirtyLocked()
	}
	s.game = g
	s.mu.Unlock()

	s.notifier.Notify(Notice{Level: LevelInfo, Title: "Game bound", Message: g.Label()})
}

// Save persists the counters and the current period. The first save in a
// period creates a record and later ones update it. On failure the local
// state is kept so the operator can retry.
func (s *Session) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	st, id, rev, periodRev := s.state, s.recordID, s.rev, s.periodRev
	s.mu.Unlock()

	if s.rec == nil {
		s.notifier.Notify(Notice{Level: LevelError, Title: "Save failed", Message: "No backend is configured.", Err: ErrNoRecorder})
		return ErrNoRecorder
	}
	if st.GameID == 0 {
		s.notifier.Notify(Notice{Level: LevelWarn, Title: "Save failed", Message: "Bind a game before saving.", Err: ErrNoGame})
		return ErrNoGame
	}

	rec := recordOf(st)
	var (
		saved backend.ScoreRecord
		err   error
	)
	if id == 0 {
		saved, err = s.rec.CreateScore(ctx, rec)
	} else {
		saved, err = s.rec.UpdateScore(ctx, id, rec)
	}
	if err != nil {
		s.notifier.Notify(Notice{Level: LevelError, Title: "Save failed", Message: "Could not save the score.", Err: err})
		return fmt.Errorf("scoreboard: save: %w", err)
	}

	s.mu.Lock()
	if s.periodRev == periodRev {
		s.recordID = saved.ID
	}
	if s.rev == rev {
		s.state.Saved = true
	}
	s.mu.Unlock()

	s.notifier.Notify(Notice{Level: LevelInfo, Title: "Saved", Message: fmt.Sprintf("Score saved for %s.", st.PeriodLabel())})
	return nil
}

// SaveAndAdvance saves and, only if that succeeded, advances the period.
func (s *Session) SaveAndAdvance(ctx context.Context) error {
	if err := s.Save(ctx); err != nil {
		return err
	}
	return s.AdvancePeriod(ctx)
}

// RecordID returns the id of the record the next save updates, or 0 when
// the next save creates one.
func (s *Session) RecordID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

func recordOf(st State) backend.ScoreRecord {
	return backend.ScoreRecord{
		GameID:    st.GameID,
		Period:    st.PeriodNumber(),
		PointsA:   st.A.Points,
		PointsB:   st.B.Points,
		FoulsA:    st.A.Fouls,
		FoulsB:    st.B.Fouls,
		TimeoutsA: st.A.Timeouts,
		TimeoutsB: st.B.Timeouts,
	}
}

func (s *Session) markDirtyLocked() {
	s.rev++
	s.state.Saved = false
}

func (s *Session) forgetRecordLocked() {
	s.recordID = 0
	s.periodRev++
}

// Tick advances a running clock by one second: up normally, down in
// countdown mode. A countdown that reaches zero stops the clock and leaves
// countdown mode. Tick on a stopped clock does nothing.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

func (s *Session) tickLocked() {
	if !s.state.Running {
		return
	}
	if !s.state.Countdown {
		s.state.Seconds++
		return
	}
	s.state.Seconds--
	if s.state.Seconds <= 0 {
		s.state.Seconds = 0
		s.state.Running = false
		s.state.Countdown = false
		s.syncTickerLocked()
	}
}

// syncTickerLocked starts the ticker goroutine when the clock runs and
// stops it when the clock stops.
func (s *Session) syncTickerLocked() {
	switch {
	case s.state.Running && s.stopTick == nil && !s.closed:
		stop := make(chan struct{})
		s.stopTick = stop
		go s.runTicker(stop)
	case !s.state.Running && s.stopTick != nil:
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) runTicker(stop chan struct{}) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.mu.Lock()
			if s.stopTick == stop {
				s.tickLocked()
			}
			s.mu.Unlock()
		}
	}
}

// Ticking reports whether the clock goroutine is running.
func (s *Session) Ticking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopTick != nil
}

// Close stops the clock and its goroutine. The session must not be used
// afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state.Running = false
	s.syncTickerLocked()
}
