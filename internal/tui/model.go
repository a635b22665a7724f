// Package tui holds the terminal screens: the voice chef, either as a
// bubbletea view or as plain log-style lines, and the interactive recipe
// studio.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

// StatusMsg carries a session status change.
type StatusMsg voice.Status

// TranscriptMsg carries the current transcript window.
type TranscriptMsg []voice.TranscriptLine

// StartFailedMsg reports that the session never became active.
type StartFailedMsg struct{ Err error }

type stoppedMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	chefStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	youStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the voice chef screen.
type Model struct {
	status     voice.Status
	transcript []voice.TranscriptLine
	stop       func() error
	stopping   bool
	err        error
	width      int
}

// NewModel creates a model. stop is called once when the user quits.
func NewModel(stop func() error) Model {
	return Model{status: voice.StatusReady, stop: stop}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m.quit()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case StatusMsg:
		m.status = voice.Status(msg)
	case TranscriptMsg:
		m.transcript = msg
	case StartFailedMsg:
		m.err = msg.Err
	case stoppedMsg:
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.stopping {
		return m, nil
	}
	m.stopping = true

	stop := m.stop
	return m, func() tea.Msg {
		if stop == nil {
			return stoppedMsg{}
		}
		return stoppedMsg{err: stop()}
	}
}

// Status returns the last status shown.
func (m Model) Status() voice.Status {
	return m.status
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Lumina Kitchen · Voice Chef"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Status: "))
	if m.status.State == voice.StateError {
		b.WriteString(errorStyle.Render(m.status.Detail()))
	} else {
		b.WriteString(m.status.String())
	}
	b.WriteString("\n\n")

	if len(m.transcript) == 0 {
		b.WriteString(faintStyle.Render("  Say hello to your chef..."))
		b.WriteString("\n")
	}
	for _, line := range m.transcript {
		style := chefStyle
		if line.Speaker == voice.SpeakerUser {
			style = youStyle
		}
		b.WriteString("  ")
		b.WriteString(style.Render(line.Speaker.Label() + ":"))
		b.WriteString(" ")
		b.WriteString(m.wrap(line.Text))
		b.WriteString("\n")
	}

	if m.err != nil && m.status.State != voice.StateError {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.stopping {
		b.WriteString(faintStyle.Render("Stopping..."))
	} else {
		b.WriteString(faintStyle.Render("Press 'q' or Ctrl+C to quit"))
	}
	b.WriteString("\n")

	return b.String()
}

// wrap limits transcript text to the terminal width.
func (m Model) wrap(text string) string {
	if m.width <= 10 {
		return text
	}
	return lipgloss.NewStyle().Width(m.width - 10).Render(text)
}
