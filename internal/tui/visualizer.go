// SPDX-License-Identifier: MIT

// Package tui renders the live terminal visualizer: one sparkline per
// frequency band, a beat track and an input level meter, refreshed from the
// shared rolling history on a fixed tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 50 * time.Millisecond

// sparkChars maps a normalized value to a block character, lowest to highest.
var sparkChars = []rune(" ▁▂▃▄▅▆▇█")

// HistorySource supplies the rolling analysis history to render.
type HistorySource interface {
	Snapshot() (bass, mid, treble []float64, beats []bool)
}

// LevelSource supplies live capture metadata for the header.
type LevelSource interface {
	DeviceName() string
	InputLevel() float64
}

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(8)
	bassStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	midStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	trebleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	beatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type tickMsg time.Time

// Model is the bubbletea model for the visualizer.
type Model struct {
	history HistorySource
	level   LevelSource

	width  int
	height int

	bass, mid, treble []float64
	beats             []bool
}

// NewModel creates a visualizer over the given sources.
func NewModel(history HistorySource, level LevelSource) Model {
	return Model{history: history, level: level}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses, terminal resizes and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.bass, m.mid, m.treble, m.beats = m.history.Snapshot()
		return m, tick()
	}
	return m, nil
}

// View renders the header, three band sparklines and the beat track.
func (m Model) View() string {
	width := m.width - 10
	if width < 16 {
		width = 16
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("beatscope"))
	if m.level != nil {
		b.WriteString(fmt.Sprintf("  %s  RMS %.4f", m.level.DeviceName(), m.level.InputLevel()))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("bass"))
	b.WriteString(bassStyle.Render(sparkline(m.bass, width)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("mid"))
	b.WriteString(midStyle.Render(sparkline(m.mid, width)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("treble"))
	b.WriteString(trebleStyle.Render(sparkline(m.treble, width)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("beats"))
	b.WriteString(beatStyle.Render(beatTrack(m.beats, width)))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("q: quit"))

	return b.String()
}

// sparkline renders the most recent values as block characters, scaled to
// the maximum of the visible window. At most width values are shown.
func sparkline(values []float64, width int) string {
	values = tail(values, width)
	if len(values) == 0 {
		return ""
	}

	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if max > 0 {
			idx = int(v / max * float64(len(sparkChars)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// beatTrack renders beat flags as markers aligned with the sparklines.
func beatTrack(beats []bool, width int) string {
	beats = tailBool(beats, width)
	var b strings.Builder
	for _, beat := range beats {
		if beat {
			b.WriteRune('█')
		} else {
			b.WriteRune('·')
		}
	}
	return b.String()
}

func tail(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func tailBool(values []bool, n int) []bool {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

// Run starts the visualizer in the alternate screen and blocks until the
// user quits.
func Run(history HistorySource, level LevelSource) error {
	p := tea.NewProgram(NewModel(history, level), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
