package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/miki-714/portfolio/internal/typewriter"
)

// tickMsg carries the generation it was scheduled in so that ticks left
// over from before a pause are dropped.
type tickMsg struct{ gen int }

var (
	roleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

type model struct {
	machine *typewriter.Machine
	cursor  string
	limit   int64

	ticks  int64
	gen    int
	paused bool
}

func newModel(m *typewriter.Machine, cursor string, limit int64) model {
	if cursor == "" {
		cursor = typewriter.DefaultCursor
	}
	return model{machine: m, cursor: cursor, limit: limit}
}

func (m model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.machine.Delay(), func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
			m.gen++
			if m.paused {
				return m, nil
			}
			return m, m.tick()
		}
	case tickMsg:
		if m.paused || msg.gen != m.gen {
			return m, nil
		}
		m.machine.Tick()
		m.ticks++
		if m.limit > 0 && m.ticks >= m.limit {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(roleStyle.Render(m.machine.State().Displayed))
	b.WriteString(cursorStyle.Render(m.cursor))
	b.WriteString("\n\n")
	hint := "space: pause  q: quit"
	if m.paused {
		hint = "paused  space: resume  q: quit"
	}
	b.WriteString(hintStyle.Render(hint))
	return frameStyle.Render(b.String())
}
