package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chaz8081/placar/internal/scoreboard"
)

var (
	colorAccent = lipgloss.Color("#F5A623")
	colorOK     = lipgloss.Color("#4CAF50")
	colorWarn   = lipgloss.Color("#FFC107")
	colorError  = lipgloss.Color("#F44336")
	colorMuted  = lipgloss.Color("#888888")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	pointsStyle   = lipgloss.NewStyle().Bold(true).Width(5).Align(lipgloss.Center)
	teamBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Width(26)
	clockStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 2)
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWarn)
)

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.screen {
	case screenDevices:
		b.WriteString(m.devicesView())
	case screenGames:
		b.WriteString(m.gamesView())
	default:
		b.WriteString(m.controlView())
	}

	b.WriteString("\n")
	if line := m.statusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) header() string {
	link := lipgloss.NewStyle().Foreground(colorError).Render("● not connected")
	if m.connected {
		link = lipgloss.NewStyle().Foreground(colorOK).Render("● " + m.device.DisplayName())
	}
	game := mutedStyle.Render("no game")
	if g, ok := m.boundGame(); ok {
		game = g
	}
	return titleStyle.Render("PLACAR") + "  " + link + "  " + game
}

func (m Model) boundGame() (string, bool) {
	if m.opts.Session == nil {
		return "", false
	}
	g, ok := m.opts.Session.Game()
	if !ok {
		return "", false
	}
	return g.Label(), true
}

func (m Model) devicesView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scoreboards nearby"))
	b.WriteString("\n")
	if len(m.devices) == 0 && m.busy == "" {
		b.WriteString(mutedStyle.Render("  none found"))
		b.WriteString("\n")
	}
	for i, p := range m.devices {
		line := fmt.Sprintf("%-24s %s  %d dBm", p.DisplayName(), p.ID, p.RSSI)
		if i == m.deviceCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(devicesHelp))
	return b.String()
}

func (m Model) gamesView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Games"))
	b.WriteString("\n")
	for i, g := range m.games {
		line := fmt.Sprintf("%-32s %s", g.Label(), g.Date.Local().Format("02/01/2006"))
		if i == m.gameCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(gamesHelp))
	return b.String()
}

func (m Model) controlView() string {
	st := m.state
	teams := lipgloss.JoinHorizontal(lipgloss.Top,
		teamView("TEAM A", st.A),
		" ",
		teamView("TEAM B", st.B),
	)

	mode := "count up"
	if st.Countdown {
		mode = "countdown"
	}
	running := "paused"
	if st.Running {
		running = "running"
	}
	alarm := "off"
	if st.Alarm {
		alarm = "on"
	}
	clock := clockStyle.Render(st.Clock()) + mutedStyle.Render(fmt.Sprintf("%s, %s", running, mode))
	info := fmt.Sprintf("Period: %s   Alarm: %s   %s", st.PeriodLabel(), alarm, savedText(st.Saved))

	var b strings.Builder
	b.WriteString(teams)
	b.WriteString("\n")
	b.WriteString(clock)
	b.WriteString("\n")
	b.WriteString(info)
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(controlHelp))
	return b.String()
}

func teamView(name string, t scoreboard.TeamState) string {
	serve := "N"
	if t.Serving {
		serve = "S"
	}
	body := fmt.Sprintf("%s\n%s\nFouls %d  Timeouts %d  Serve %s",
		titleStyle.Render(name),
		pointsStyle.Render(fmt.Sprintf("%d", t.Points)),
		t.Fouls, t.Timeouts, serve,
	)
	return teamBoxStyle.Render(body)
}

func savedText(saved bool) string {
	if saved {
		return lipgloss.NewStyle().Foreground(colorOK).Render("saved")
	}
	return lipgloss.NewStyle().Foreground(colorWarn).Render("unsaved")
}

func (m Model) statusLine() string {
	switch {
	case m.confirm == confirmReset:
		return confirmStyle.Render("Reset the whole scoreboard? (y/n)")
	case m.confirm == confirmPeriod:
		return confirmStyle.Render("Save and move to the next period? (y save+advance, f advance without saving, n cancel)")
	case m.busy != "":
		return mutedStyle.Render(m.busy)
	case m.notice != nil:
		return noticeView(*m.notice)
	}
	return ""
}

func noticeView(n scoreboard.Notice) string {
	color := colorOK
	switch n.Level {
	case scoreboard.LevelWarn:
		color = colorWarn
	case scoreboard.LevelError:
		color = colorError
	}
	text := n.Title + ": " + n.Message
	if n.Err != nil {
		text += mutedStyle.Render(" (" + n.Err.Error() + ")")
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
