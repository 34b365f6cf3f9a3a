package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateSampling state = iota
	stateDone
)

// tickMsg carries the result of one Session.Step.
type tickMsg struct {
	tick Tick
	err  error
}

type model struct {
	state     state
	spinner   spinner.Model
	session   *Session
	presenter *Presenter

	current  RGB
	sampled  bool
	selected *RGB
	err      error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newModel(session *Session, presenter *Presenter) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return model{
		state:     stateSampling,
		spinner:   s,
		session:   session,
		presenter: presenter,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, stepCmd(m.session))
}

// stepCmd runs one tick. The next one is only issued after its message
// has been handled, so the session is never stepped concurrently.
func stepCmd(s *Session) tea.Cmd {
	return func() tea.Msg {
		tick, err := s.Step()
		return tickMsg{tick: tick, err: err}
	}
}

// nextStep schedules the following tick after the session's interval.
func nextStep(s *Session) tea.Cmd {
	if s.interval <= 0 {
		return stepCmd(s)
	}
	step := stepCmd(s)
	return tea.Tick(s.interval, func(time.Time) tea.Msg { return step() })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.err = ErrAborted
			m.state = stateDone
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.state != stateSampling {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.state = stateDone
			return m, tea.Quit
		}

		var cmds []tea.Cmd
		if msg.tick.Changed {
			m.current = msg.tick.Color
			m.sampled = true
			cmds = append(cmds, tea.Println(m.presenter.Live(msg.tick.Color)))
		}

		if msg.tick.Stop {
			c, err := m.session.Selected()
			m.state = stateDone
			if err != nil {
				m.err = err
			} else {
				m.selected = &c
			}
			return m, tea.Sequence(tea.Batch(cmds...), tea.Quit)
		}

		cmds = append(cmds, nextStep(m.session))
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateSampling:
		swatch := "      "
		label := "waiting for the pointer..."
		if m.sampled {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(m.current.String())).Render("      ")
			label = m.current.String()
		}
		return fmt.Sprintf("\n %s %s %s\n\n%s\n",
			m.spinner.View(),
			swatch,
			titleStyle.Render(label),
			helpStyle.Render("  press a stop button to pick · q quit"))

	case stateDone:
		if m.err != nil {
			return "\n" + errStyle.Render("  Error: "+m.err.Error()) + "\n\n"
		}
	}

	return ""
}
