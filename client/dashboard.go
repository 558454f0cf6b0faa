package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/auth"
	"github.com/puyokura/philoterm/model"
)

const philosophersPerRow = 3

type dashPhilosophersMsg struct {
	seq   int
	items []model.Philosopher
	err   error
}

type dashSessionsMsg struct {
	seq   int
	items []model.ChatSession
	err   error
}

type dashSessionCreatedMsg struct {
	seq     int
	session *model.ChatSession
	err     error
}

const (
	sectionPhilosophers = iota
	sectionSessions
)

type dashboardScreen struct {
	api  *api.Client
	auth *auth.Manager
	seq  int

	philosophers []model.Philosopher
	sessions     []model.ChatSession

	// pending counts the two mount fetches still in flight.
	pending  int
	loading  bool
	creating bool
	errMsg   string
	spin     spinner.Model

	section    int
	philCursor int
	sessCursor int

	width  int
	height int
}

func newDashboardScreen(client *api.Client, mgr *auth.Manager, seq, width, height int) dashboardScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return dashboardScreen{
		api:     client,
		auth:    mgr,
		seq:     seq,
		pending: 2,
		loading: true,
		spin:    sp,
		width:   width,
		height:  height,
	}
}

// Init fans out the two mount fetches; the screen leaves the loading
// state only once both have resolved.
func (m dashboardScreen) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchPhilosophers(), m.fetchSessions())
}

func (m dashboardScreen) fetchPhilosophers() tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		items, err := m.api.Philosophers(context.Background())
		return dashPhilosophersMsg{seq: seq, items: items, err: err}
	}
}

func (m dashboardScreen) fetchSessions() tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		items, err := m.api.Sessions(context.Background())
		return dashSessionsMsg{seq: seq, items: items, err: err}
	}
}

func (m dashboardScreen) startNewChat(philosopherID string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		session, err := m.api.CreateSession(context.Background(), philosopherID)
		return dashSessionCreatedMsg{seq: seq, session: session, err: err}
	}
}

func (m dashboardScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.creating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case dashPhilosophersMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.pending--
		if msg.err != nil {
			return m.fetchFailed(), nil
		}
		m.philosophers = msg.items
		if m.pending == 0 && m.errMsg == "" {
			m.loading = false
		}
		return m, nil

	case dashSessionsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.pending--
		if msg.err != nil {
			return m.fetchFailed(), nil
		}
		m.sessions = msg.items
		if m.pending == 0 && m.errMsg == "" {
			m.loading = false
		}
		return m, nil

	case dashSessionCreatedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			// No navigation happens on failure, so the loading state must
			// be cleared here.
			m.creating = false
			m.errMsg = "Failed to create chat session. Please try again."
			return m, nil
		}
		return m, navigate(route{kind: screenChat, sessionID: msg.session.ID})

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// fetchFailed collapses any mount fetch error into the single banner.
func (m dashboardScreen) fetchFailed() dashboardScreen {
	m.loading = false
	if m.errMsg == "" {
		m.errMsg = "Failed to load data. Please try again."
	}
	return m
}

func (m dashboardScreen) handleKey(msg tea.KeyMsg) (screenModel, tea.Cmd) {
	if m.loading || m.creating {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "ctrl+l":
			return m, func() tea.Msg { return logoutMsg{} }
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }

	case "r":
		fresh := newDashboardScreen(m.api, m.auth, m.seq, m.width, m.height)
		return fresh, fresh.Init()

	case "tab":
		if len(m.sessions) > 0 {
			m.section = (m.section + 1) % 2
		}
		return m, nil

	case "left", "h":
		if m.section == sectionPhilosophers && m.philCursor > 0 {
			m.philCursor--
		}
		return m, nil

	case "right", "l":
		if m.section == sectionPhilosophers && m.philCursor < len(m.philosophers)-1 {
			m.philCursor++
		}
		return m, nil

	case "up", "k":
		if m.section == sectionSessions {
			if m.sessCursor > 0 {
				m.sessCursor--
			} else if len(m.philosophers) > 0 {
				m.section = sectionPhilosophers
			}
		} else if m.philCursor >= philosophersPerRow {
			m.philCursor -= philosophersPerRow
		}
		return m, nil

	case "down", "j":
		if m.section == sectionPhilosophers {
			if m.philCursor+philosophersPerRow < len(m.philosophers) {
				m.philCursor += philosophersPerRow
			} else if len(m.sessions) > 0 {
				m.section = sectionSessions
			}
		} else if m.sessCursor < len(m.sessions)-1 {
			m.sessCursor++
		}
		return m, nil

	case "enter":
		if m.section == sectionPhilosophers {
			if m.philCursor < len(m.philosophers) {
				m.creating = true
				m.errMsg = ""
				return m, tea.Batch(m.spin.Tick, m.startNewChat(m.philosophers[m.philCursor].ID))
			}
			return m, nil
		}
		if m.sessCursor < len(m.sessions) {
			// Resuming is pure navigation, no network call.
			return m, navigate(route{kind: screenChat, sessionID: m.sessions[m.sessCursor].ID})
		}
		return m, nil
	}

	return m, nil
}

// philosopherName resolves a philosopher ID against the loaded list,
// falling back to the raw ID.
func (m dashboardScreen) philosopherName(id string) string {
	for _, p := range m.philosophers {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func (m dashboardScreen) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Philosophy AI"))
	if u := m.auth.User(); u != nil {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("Welcome back, " + u.Username))
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(bannerStyle.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" Loading..."))
	case m.creating:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" Starting chat..."))
	case m.errMsg == "":
		b.WriteString(m.viewPhilosophers())
		if len(m.sessions) > 0 {
			b.WriteString("\n\n")
			b.WriteString(m.viewSessions())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter open · tab switch section · r reload · ctrl+l logout · q quit"))
	return b.String()
}

func (m dashboardScreen) viewPhilosophers() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("For you"))
	b.WriteString("\n")

	var row []string
	var rows []string
	for i, p := range m.philosophers {
		style := cardStyle
		if m.section == sectionPhilosophers && i == m.philCursor {
			style = selectedCardStyle
		}
		name := runewidth.Truncate(p.Name, 22, "…")
		card := style.Render(name + "\n" + dimStyle.Render("Start Chat"))
		row = append(row, card)
		if len(row) == philosophersPerRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}

func (m dashboardScreen) viewSessions() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Recent Conversations"))
	b.WriteString("\n")

	for i, s := range m.sessions {
		line := m.philosopherName(s.Philosopher)
		if !s.UpdatedAt.IsZero() {
			line += dimStyle.Render("  " + s.UpdatedAt.Format("Jan 2 15:04"))
		}
		if m.section == sectionSessions && i == m.sessCursor {
			line = sidebarSelectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
