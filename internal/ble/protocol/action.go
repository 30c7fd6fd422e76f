package protocol

import (
	"fmt"
	"strings"
)

// Action is a logical operator action on the control screen. Each action
// maps to exactly one Opcode through a fixed table.
type Action int

const (
	ActionTeamAPointUp Action = iota
	ActionTeamAPointDown
	ActionTeamBPointUp
	ActionTeamBPointDown
	ActionTeamAFoul
	ActionTeamBFoul
	ActionTeamAServe
	ActionTeamBServe
	ActionTeamATimeout
	ActionTeamBTimeout
	ActionClockToggle
	ActionAlarmToggle
	ActionReset
	ActionAdvancePeriod
	ActionPreset5
	ActionPreset7
	ActionPreset10
	ActionPreset15
	ActionPreset20
	ActionPreset30
	numActions
)

type actionInfo struct {
	name   string
	opcode Opcode
}

var actionTable = [numActions]actionInfo{
	ActionTeamAPointUp:   {"a-point-up", OpTeamAPointUp},
	ActionTeamAPointDown: {"a-point-down", OpTeamAPointDown},
	ActionTeamBPointUp:   {"b-point-up", OpTeamBPointUp},
	ActionTeamBPointDown: {"b-point-down", OpTeamBPointDown},
	ActionTeamAFoul:      {"a-foul", OpTeamAFoul},
	ActionTeamBFoul:      {"b-foul", OpTeamBFoul},
	ActionTeamAServe:     {"a-serve", OpTeamAServe},
	ActionTeamBServe:     {"b-serve", OpTeamBServe},
	ActionTeamATimeout:   {"a-timeout", OpTeamATimeout},
	ActionTeamBTimeout:   {"b-timeout", OpTeamBTimeout},
	ActionClockToggle:    {"clock", OpClockToggle},
	ActionAlarmToggle:    {"alarm", OpAlarmToggle},
	ActionReset:          {"reset", OpReset},
	ActionAdvancePeriod:  {"period", OpAdvancePeriod},
	ActionPreset5:        {"preset-5", OpPreset5},
	ActionPreset7:        {"preset-7", OpPreset7},
	ActionPreset10:       {"preset-10", OpPreset10},
	ActionPreset15:       {"preset-15", OpPreset15},
	ActionPreset20:       {"preset-20", OpPreset20},
	ActionPreset30:       {"preset-30", OpPreset30},
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a >= 0 && a < numActions
}

// Opcode returns the command byte for a. An unknown action yields the zero
// opcode, which is not Valid.
func (a Action) Opcode() Opcode {
	if !a.Valid() {
		return 0
	}
	return actionTable[a].opcode
}

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionTable[a].name
}

// Actions returns every action in table order.
func Actions() []Action {
	out := make([]Action, numActions)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

// ParseAction looks up an action by its name ("a-point-up", "preset-10", ...).
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, info := range actionTable {
		if info.name == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown action %q", name)
}

// Presets lists the countdown durations, in minutes, the firmware has a
// dedicated opcode for.
var Presets = []int{5, 7, 10, 15, 20, 30}

var presetActions = map[int]Action{
	5:  ActionPreset5,
	7:  ActionPreset7,
	10: ActionPreset10,
	15: ActionPreset15,
	20: ActionPreset20,
	30: ActionPreset30,
}

// PresetAction returns the action selecting a countdown of the given length.
func PresetAction(minutes int) (Action, bool) {
	a, ok := presetActions[minutes]
	return a, ok
}

// PresetMinutes is the inverse of PresetAction.
func PresetMinutes(a Action) (int, bool) {
	for m, pa := range presetActions {
		if pa == a {
			return m, true
		}
	}
	return 0, false
}
