package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/philoterm/auth"
	"github.com/puyokura/philoterm/model"
)

type registerResultMsg struct {
	seq int
	res auth.Result
}

type registerScreen struct {
	auth *auth.Manager
	seq  int

	inputs []textinput.Model
	focus  int
	busy   bool
	errMsg string

	width  int
	height int
}

func newRegisterScreen(mgr *auth.Manager, seq, width, height int) registerScreen {
	placeholders := []string{"Username", "Email", "Password", "Confirm password"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 128
		ti.Width = 30
		if i >= 2 {
			ti.EchoMode = textinput.EchoPassword
		}
		inputs[i] = ti
	}
	inputs[0].Focus()

	return registerScreen{
		auth:   mgr,
		seq:    seq,
		inputs: inputs,
		width:  width,
		height: height,
	}
}

func (m registerScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (m registerScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, navigate(route{kind: screenLogin})
		case tea.KeyTab, tea.KeyDown:
			return m.moveFocus(1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m.moveFocus(-1)
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			reg := model.Registration{
				Username:  strings.TrimSpace(m.inputs[0].Value()),
				Email:     strings.TrimSpace(m.inputs[1].Value()),
				Password:  m.inputs[2].Value(),
				Password2: m.inputs[3].Value(),
			}
			if reg.Username == "" || reg.Email == "" || reg.Password == "" {
				m.errMsg = "All fields are required."
				return m, nil
			}
			if reg.Password != reg.Password2 {
				m.errMsg = "Passwords do not match."
				return m, nil
			}
			m.busy = true
			m.errMsg = ""
			return m, m.submit(reg)
		}

	case registerResultMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.busy = false
		if msg.res.OK {
			return m, navigate(route{kind: screenDashboard})
		}
		m.errMsg = msg.res.Message
		return m, nil
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m registerScreen) moveFocus(delta int) (screenModel, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m, textinput.Blink
}

func (m registerScreen) submit(reg model.Registration) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		res := m.auth.Register(context.Background(), reg)
		return registerResultMsg{seq: seq, res: res}
	}
}

func (m registerScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Philosophy AI"))
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Create an account"))
	b.WriteString("\n\n")
	for _, ti := range m.inputs {
		b.WriteString(ti.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(dimStyle.Render("Creating account..."))
	case m.errMsg != "":
		b.WriteString(bannerStyle.Render(m.errMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter register · esc back to sign in"))

	return centered(m.width, m.height, b.String())
}
