package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/puyokura/philoterm/auth"
)

type loginResultMsg struct {
	seq int
	res auth.Result
}

type loginScreen struct {
	auth *auth.Manager
	seq  int

	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errMsg   string

	width  int
	height int
}

func newLoginScreen(mgr *auth.Manager, seq, width, height int) loginScreen {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 64
	username.Width = 30
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.Width = 30
	password.EchoMode = textinput.EchoPassword

	return loginScreen{
		auth:     mgr,
		seq:      seq,
		username: username,
		password: password,
		width:    width,
		height:   height,
	}
}

func (m loginScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, textinput.Blink
		case tea.KeyCtrlR:
			return m, navigate(route{kind: screenRegister})
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			username := strings.TrimSpace(m.username.Value())
			password := m.password.Value()
			if username == "" || password == "" {
				m.errMsg = "Username and password are required."
				return m, nil
			}
			m.busy = true
			m.errMsg = ""
			return m, m.submit(username, password)
		}

	case loginResultMsg:
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
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m loginScreen) submit(username, password string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		res := m.auth.Login(context.Background(), username, password)
		return loginResultMsg{seq: seq, res: res}
	}
}

func (m loginScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Philosophy AI"))
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(dimStyle.Render("Signing in..."))
	case m.errMsg != "":
		b.WriteString(bannerStyle.Render(m.errMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter sign in · ctrl+r register · esc quit"))

	return centered(m.width, m.height, b.String())
}

// centered places content in the middle of the window, falling back to
// plain output before the first WindowSizeMsg.
func centered(width, height int, content string) string {
	if width == 0 || height == 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
