package console

import "github.com/chaz8081/placar/internal/ble/protocol"

// controlKeys maps control-screen keys to the actions they send directly.
// Reset and period advance are missing on purpose: they go through a
// confirmation prompt.
var controlKeys = map[string]protocol.Action{
	"a": protocol.ActionTeamAPointUp,
	"z": protocol.ActionTeamAPointDown,
	"d": protocol.ActionTeamAFoul,
	"x": protocol.ActionTeamAServe,
	"c": protocol.ActionTeamATimeout,

	"l": protocol.ActionTeamBPointUp,
	".": protocol.ActionTeamBPointDown,
	"j": protocol.ActionTeamBFoul,
	",": protocol.ActionTeamBServe,
	"m": protocol.ActionTeamBTimeout,

	" ": protocol.ActionClockToggle,
	"b": protocol.ActionAlarmToggle,

	"1": protocol.ActionPreset5,
	"2": protocol.ActionPreset7,
	"3": protocol.ActionPreset10,
	"4": protocol.ActionPreset15,
	"5": protocol.ActionPreset20,
	"6": protocol.ActionPreset30,
}

const controlHelp = `A: a +1  z -1  d foul  x serve  c timeout    B: l +1  . -1  j foul  , serve  m timeout
space clock  b alarm  1-6 preset 5/7/10/15/20/30  p period  r reset  w save  g games  tab devices  q quit`

const devicesHelp = `up/down select  enter connect  s scan again  tab scoreboard  q quit`

const gamesHelp = `up/down select  enter bind  esc back`
