// Package scoreboard mirrors the match state shown on the electronic
// scoreboard and turns operator actions into scoreboard commands.
package scoreboard

import "fmt"

// Counter ceilings. Incrementing past a ceiling wraps to zero.
const (
	MaxPoints   = 199
	MaxFouls    = 20
	MaxTimeouts = 2
)

// Periods is the fixed, ordered list of period labels. Advancing past the
// last label wraps to the first.
var Periods = []string{
	"1º Período",
	"2º Período",
	"3º Período",
	"4º Período",
	"5º Período",
	"TEMPO EXTRA",
	"PENALTIS",
}

// Team selects one side of the scoreboard.
type Team int

const (
	TeamA Team = iota
	TeamB
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// Counters are the persisted per-team numbers.
type Counters struct {
	Points   int
	Fouls    int
	Timeouts int
}

// clamp forces every counter into its valid range.
func (c Counters) clamp() Counters {
	return Counters{
		Points:   clampInt(c.Points, MaxPoints),
		Fouls:    clampInt(c.Fouls, MaxFouls),
		Timeouts: clampInt(c.Timeouts, MaxTimeouts),
	}
}

// TeamState is one side of the scoreboard.
type TeamState struct {
	Counters
	Serving bool
}

// State is a snapshot of the match.
type State struct {
	A, B      TeamState
	Seconds   int  // clock value
	Running   bool // clock is ticking
	Countdown bool // clock counts down and stops at zero
	Period    int  // index into Periods
	Alarm     bool
	Saved     bool // counters match the last successful save
	GameID    int64
}

// Team returns the state of side t.
func (s *State) Team(t Team) *TeamState {
	if t == TeamB {
		return &s.B
	}
	return &s.A
}

// PeriodLabel returns the current period's label.
func (s State) PeriodLabel() string {
	return Periods[s.Period]
}

// PeriodNumber returns the 1-based period index the backend stores.
func (s State) PeriodNumber() int {
	return s.Period + 1
}

// Clock formats the clock as mm:ss.
func (s State) Clock() string {
	return FormatClock(s.Seconds)
}

// FormatClock formats seconds as mm:ss. Minutes are not capped at 59.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Counter rules, shared by every team.

func nextPoints(p int) int {
	if p >= MaxPoints {
		return 0
	}
	return p + 1
}

func nextFouls(f int) int {
	if f >= MaxFouls {
		return 0
	}
	return f + 1
}

func nextTimeouts(t int) int {
	if t >= MaxTimeouts {
		return 0
	}
	return t + 1
}

func decrement(v int) int {
	if v <= 0 {
		return 0
	}
	return v - 1
}

func clampInt(v, hi int) int {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	default:
		return v
	}
}
