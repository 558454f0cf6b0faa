package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/auth"
	"github.com/puyokura/philoterm/model"
)

const (
	sidebarWidth = 28
	// Below this width the sidebar becomes a dismissible overlay.
	narrowWidth = 100
)

type chatSessionMsg struct {
	seq     int
	session *model.ChatSession
	err     error
}

type chatSessionsMsg struct {
	seq   int
	items []model.ChatSession
	err   error
}

type chatPhilosopherMsg struct {
	seq  int
	phil *model.Philosopher
	err  error
}

type chatSentMsg struct {
	seq     int
	localID string
	reply   string
	err     error
}

type chatPhilosophersMsg struct {
	seq   int
	items []model.Philosopher
	err   error
}

type chatChangedMsg struct {
	seq int
	err error
}

// philItem adapts a philosopher for the bubbles list used by the
// persona picker.
type philItem struct {
	phil model.Philosopher
}

func (i philItem) Title() string       { return i.phil.Name }
func (i philItem) Description() string { return i.phil.ID }
func (i philItem) FilterValue() string { return i.phil.Name }

type chatScreen struct {
	api  *api.Client
	auth *auth.Manager
	seq  int

	sessionID   string
	session     *model.ChatSession
	philosopher *model.Philosopher
	sessions    []model.ChatSession
	messages    []model.Message

	// Mount join state: the screen leaves loading once the session, the
	// session list, and the session's philosopher have all arrived.
	gotSession  bool
	gotSessions bool
	gotPhil     bool
	loading     bool
	sending     bool
	errMsg      string

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	ready    bool

	sidebarFocus  bool
	sidebarCursor int
	overlayOpen   bool

	picker        list.Model
	pickerOpen    bool
	pickerLoading bool

	width  int
	height int
}

func newChatScreen(client *api.Client, mgr *auth.Manager, sessionID string, seq, width, height int) chatScreen {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatScreen{
		api:       client,
		auth:      mgr,
		seq:       seq,
		sessionID: sessionID,
		loading:   true,
		input:     ti,
		spin:      sp,
	}
	if width > 0 && height > 0 {
		m.resize(width, height)
	}
	return m
}

// Init fans out the session and session-list fetches; the philosopher
// fetch follows once the session is known.
func (m chatScreen) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.fetchSession(), m.fetchSessions())
}

func (m chatScreen) fetchSession() tea.Cmd {
	seq := m.seq
	id := m.sessionID
	return func() tea.Msg {
		session, err := m.api.Session(context.Background(), id)
		return chatSessionMsg{seq: seq, session: session, err: err}
	}
}

func (m chatScreen) fetchSessions() tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		items, err := m.api.Sessions(context.Background())
		return chatSessionsMsg{seq: seq, items: items, err: err}
	}
}

func (m chatScreen) fetchPhilosopher(id string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		phil, err := m.api.Philosopher(context.Background(), id)
		return chatPhilosopherMsg{seq: seq, phil: phil, err: err}
	}
}

func (m chatScreen) send(localID, text string) tea.Cmd {
	seq := m.seq
	id := m.sessionID
	return func() tea.Msg {
		reply, err := m.api.SendMessage(context.Background(), id, text)
		return chatSentMsg{seq: seq, localID: localID, reply: reply, err: err}
	}
}

func (m chatScreen) fetchPhilosophersForPicker() tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		items, err := m.api.Philosophers(context.Background())
		return chatPhilosophersMsg{seq: seq, items: items, err: err}
	}
}

func (m chatScreen) changePhilosopher(philosopherID string) tea.Cmd {
	seq := m.seq
	id := m.sessionID
	return func() tea.Msg {
		_, err := m.api.ChangePhilosopher(context.Background(), id, philosopherID)
		return chatChangedMsg{seq: seq, err: err}
	}
}

func (m chatScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderThread()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.sending && !m.pickerLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case chatSessionMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			return m.fetchFailed(), nil
		}
		m.session = msg.session
		m.messages = msg.session.Messages
		m.gotSession = true
		m.renderThread()
		return m, m.fetchPhilosopher(msg.session.Philosopher)

	case chatSessionsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			return m.fetchFailed(), nil
		}
		m.sessions = msg.items
		m.gotSessions = true
		for i, s := range m.sessions {
			if s.ID == m.sessionID {
				m.sidebarCursor = i
			}
		}
		m.settle()
		return m, nil

	case chatPhilosopherMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			return m.fetchFailed(), nil
		}
		m.philosopher = msg.phil
		m.gotPhil = true
		m.settle()
		m.renderThread()
		return m, nil

	case chatSentMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.sending = false
		if msg.err != nil {
			// The optimistic message stays in the thread, marked as
			// undelivered.
			m.markMessage(msg.localID, func(mm *model.Message) { mm.Failed = true })
			m.errMsg = "Failed to send message. Please try again."
			m.renderThread()
			return m, nil
		}
		m.markMessage(msg.localID, func(mm *model.Message) { mm.Local = false })
		if msg.reply != "" {
			reply := model.NewLocalMessage(model.RoleAssistant, msg.reply)
			reply.Local = false
			m.messages = append(m.messages, reply)
		}
		m.renderThread()
		return m, nil

	case chatPhilosophersMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.pickerLoading = false
		if msg.err != nil {
			m.errMsg = "Failed to load philosophers. Please try again."
			return m, nil
		}
		items := make([]list.Item, len(msg.items))
		for i, p := range msg.items {
			items[i] = philItem{phil: p}
		}
		picker := list.New(items, list.NewDefaultDelegate(), m.width/2, m.height-4)
		picker.Title = "Change philosopher"
		picker.SetShowStatusBar(false)
		picker.SetFilteringEnabled(false)
		m.picker = picker
		m.pickerOpen = true
		return m, nil

	case chatChangedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			m.errMsg = "Failed to change philosopher. Please try again."
			return m, nil
		}
		// Refetch the session so the thread picks up the replaced system
		// message; the philosopher fetch chains off the session reply.
		m.gotSession = false
		m.gotPhil = false
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.spin.Tick, m.fetchSession())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// settle leaves the loading state once the whole mount chain resolved.
func (m *chatScreen) settle() {
	if m.gotSession && m.gotSessions && m.gotPhil && m.errMsg == "" {
		m.loading = false
	}
}

func (m chatScreen) fetchFailed() chatScreen {
	m.loading = false
	if m.errMsg == "" {
		m.errMsg = "Failed to load chat. Please try again."
	}
	return m
}

func (m *chatScreen) markMessage(id string, mutate func(*model.Message)) {
	for i := range m.messages {
		if m.messages[i].ID == id {
			mutate(&m.messages[i])
			return
		}
	}
}

func (m chatScreen) handleKey(msg tea.KeyMsg) (screenModel, tea.Cmd) {
	if m.pickerOpen {
		switch msg.String() {
		case "esc":
			m.pickerOpen = false
			return m, nil
		case "enter":
			item, ok := m.picker.SelectedItem().(philItem)
			if !ok {
				return m, nil
			}
			m.pickerOpen = false
			return m, m.changePhilosopher(item.phil.ID)
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		if m.overlayOpen {
			m.overlayOpen = false
			m.sidebarFocus = false
			m.input.Focus()
			return m, nil
		}
		return m, navigate(route{kind: screenDashboard})

	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }

	case "ctrl+s":
		if m.narrow() {
			m.overlayOpen = !m.overlayOpen
			m.sidebarFocus = m.overlayOpen
		} else {
			m.sidebarFocus = !m.sidebarFocus
		}
		if m.sidebarFocus {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil

	case "ctrl+p":
		if m.loading || m.pickerLoading {
			return m, nil
		}
		m.pickerLoading = true
		m.errMsg = ""
		return m, tea.Batch(m.spin.Tick, m.fetchPhilosophersForPicker())
	}

	if m.sidebarFocus {
		switch msg.String() {
		case "up", "k":
			if m.sidebarCursor > 0 {
				m.sidebarCursor--
			}
			return m, nil
		case "down", "j":
			if m.sidebarCursor < len(m.sessions)-1 {
				m.sidebarCursor++
			}
			return m, nil
		case "enter":
			if m.sidebarCursor < len(m.sessions) {
				target := m.sessions[m.sidebarCursor].ID
				if target == m.sessionID {
					// Already here; just dismiss the overlay.
					m.overlayOpen = false
					m.sidebarFocus = false
					m.input.Focus()
					return m, nil
				}
				// Navigation replaces the screen, which also closes the
				// overlay on narrow viewports.
				return m, navigate(route{kind: screenChat, sessionID: target})
			}
			return m, nil
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		return m.sendMessage()
	}

	return m.updateFocused(msg)
}

// sendMessage performs the optimistic send: the user message lands in
// the thread before the network call is issued.
func (m chatScreen) sendMessage() (screenModel, tea.Cmd) {
	if m.loading || m.sending {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	local := model.NewLocalMessage(model.RoleUser, text)
	m.messages = append(m.messages, local)
	m.input.SetValue("")
	m.sending = true
	m.errMsg = ""
	m.renderThread()

	return m, tea.Batch(m.spin.Tick, m.send(local.ID, text))
}

func (m chatScreen) updateFocused(msg tea.Msg) (screenModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *chatScreen) narrow() bool {
	return m.width < narrowWidth
}

func (m *chatScreen) resize(width, height int) {
	m.width = width
	m.height = height

	threadWidth := width
	if !m.narrow() {
		threadWidth = width - sidebarWidth
	}
	// Header, status, input, and help each take a line around the
	// viewport.
	threadHeight := height - 6
	if threadHeight < 1 {
		threadHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(threadWidth, threadHeight)
		m.ready = true
	} else {
		m.viewport.Width = threadWidth
		m.viewport.Height = threadHeight
	}
	m.input.Width = threadWidth - 4
}

// renderThread rebuilds the viewport content from the message list.
func (m *chatScreen) renderThread() {
	if !m.ready {
		return
	}
	width := m.viewport.Width
	var blocks []string
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))
	m.viewport.GotoBottom()
}

func (m *chatScreen) renderMessage(msg model.Message, width int) string {
	if msg.Role == model.RoleSystem {
		content := systemMsgStyle.Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
	}

	maxBubble := width * 7 / 10
	if maxBubble < 20 {
		maxBubble = 20
	}

	caption := ""
	if !msg.Timestamp.IsZero() {
		caption = msg.Timestamp.Format("15:04")
	}
	if msg.Failed {
		caption += " · not delivered"
	}

	body := msg.Content
	if caption != "" {
		body += "\n" + dimStyle.Render(caption)
	}

	if msg.Role == model.RoleUser {
		bubble := userBubbleStyle.MaxWidth(maxBubble).Render(body)
		block := lipgloss.JoinHorizontal(lipgloss.Bottom, bubble, " ", avatarStyle.Render(m.userInitial()))
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	bubble := assistantBubbleStyle.MaxWidth(maxBubble).Render(body)
	block := lipgloss.JoinHorizontal(lipgloss.Bottom, avatarStyle.Render(m.philosopherInitial()), " ", bubble)
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, block)
}

func (m *chatScreen) userInitial() string {
	if u := m.auth.User(); u != nil && u.Username != "" {
		return strings.ToUpper(u.Username[:1])
	}
	return "?"
}

func (m *chatScreen) philosopherInitial() string {
	if m.philosopher != nil && m.philosopher.Name != "" {
		return strings.ToUpper(m.philosopher.Name[:1])
	}
	return "?"
}

func (m chatScreen) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.pickerOpen {
		return m.picker.View()
	}

	main := m.viewMain()
	if m.narrow() {
		if m.overlayOpen {
			return m.viewSidebar(m.height)
		}
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(m.height), main)
}

func (m chatScreen) viewMain() string {
	var b strings.Builder

	// Header.
	if m.philosopher != nil {
		b.WriteString(titleStyle.Render(m.philosopher.Name))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(model.AvatarURL(m.philosopher.ID)))
	} else {
		b.WriteString(titleStyle.Render("Chat"))
	}
	b.WriteString("\n")

	// Thread.
	if m.loading {
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" Loading chat..."))
		b.WriteString(strings.Repeat("\n", m.viewport.Height))
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	// Status line.
	switch {
	case m.errMsg != "":
		b.WriteString(bannerStyle.Render(m.errMsg))
	case m.sending:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" Thinking..."))
	case m.pickerLoading:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" Loading philosophers..."))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · ctrl+s sessions · ctrl+p philosopher · esc dashboard · ctrl+l logout"))
	return b.String()
}

func (m chatScreen) viewSidebar(height int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Chat History"))
	b.WriteString("\n\n")

	labelWidth := sidebarWidth - 4
	for i, s := range m.sessions {
		label := s.Summary
		if label == "" {
			label = m.sidebarName(s.Philosopher)
		}
		label = runewidth.Truncate(label, labelWidth, "…")

		switch {
		case m.sidebarFocus && i == m.sidebarCursor:
			label = sidebarSelectedStyle.Render("> " + label)
		case s.ID == m.sessionID:
			label = "• " + label
		default:
			label = "  " + label
		}
		b.WriteString(label)
		b.WriteString("\n")
		if !s.UpdatedAt.IsZero() {
			b.WriteString(dimStyle.Render("  " + s.UpdatedAt.Format("Jan 2")))
			b.WriteString("\n")
		}
	}

	return sidebarStyle.Width(sidebarWidth).Height(height - 1).Render(b.String())
}

// sidebarName resolves a philosopher ID for a sidebar row. Only
// the current session's philosopher is loaded, so other rows fall back
// to the raw ID.
func (m chatScreen) sidebarName(philosopherID string) string {
	if m.philosopher != nil && m.philosopher.ID == philosopherID {
		return "Chat with " + m.philosopher.Name
	}
	return "Chat with " + philosopherID
}
