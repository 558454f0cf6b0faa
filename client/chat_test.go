package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/philoterm/model"
)

func newTestChat(t *testing.T) chatScreen {
	t.Helper()
	client, mgr := testDeps(t, true)
	return newChatScreen(client, mgr, "s1", 1, 120, 40)
}

func pressEnter(m chatScreen) (chatScreen, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(chatScreen), cmd
}

func TestChatMountJoin(t *testing.T) {
	m := newTestChat(t)
	assert.True(t, m.loading)

	session := &model.ChatSession{
		ID:          "s1",
		Philosopher: "kafka",
		Messages: []model.Message{
			{ID: "m1", Role: model.RoleSystem, Content: "You are Franz Kafka."},
			{ID: "m2", Role: model.RoleUser, Content: "Hello"},
		},
	}
	next, cmd := m.Update(chatSessionMsg{seq: 1, session: session})
	m = next.(chatScreen)
	require.NotNil(t, cmd, "the philosopher fetch chains off the session result")
	assert.Len(t, m.messages, 2)
	assert.True(t, m.loading, "still waiting on the rest of the chain")

	next, _ = m.Update(chatSessionsMsg{seq: 1, items: []model.ChatSession{*session}})
	m = next.(chatScreen)
	assert.True(t, m.loading)

	next, _ = m.Update(chatPhilosopherMsg{seq: 1, phil: &model.Philosopher{ID: "kafka", Name: "Franz Kafka"}})
	m = next.(chatScreen)
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "Franz Kafka")
}

func TestChatMountFailureShowsBanner(t *testing.T) {
	m := newTestChat(t)
	next, _ := m.Update(chatSessionMsg{seq: 1, err: assert.AnError})
	m = next.(chatScreen)
	assert.False(t, m.loading)
	assert.Equal(t, "Failed to load chat. Please try again.", m.errMsg)
}

func TestChatStaleResultsDropped(t *testing.T) {
	m := newTestChat(t)
	next, cmd := m.Update(chatSessionMsg{seq: 99, session: &model.ChatSession{ID: "other"}})
	m = next.(chatScreen)
	assert.Nil(t, cmd)
	assert.Nil(t, m.session)
}

func TestSendMessageEmptyIsNoOp(t *testing.T) {
	for _, input := range []string{"", "   "} {
		m := newTestChat(t)
		m.loading = false
		m.input.SetValue(input)

		m, cmd := pressEnter(m)
		assert.Nil(t, cmd, "no network call for empty input")
		assert.Empty(t, m.messages)
		assert.False(t, m.sending)
	}
}

func TestSendMessageOptimisticOrdering(t *testing.T) {
	m := newTestChat(t)
	m.loading = false
	m.input.SetValue("Hello")

	// The user message is in the thread before any network result.
	m, cmd := pressEnter(m)
	require.NotNil(t, cmd)
	require.Len(t, m.messages, 1)
	assert.Equal(t, model.RoleUser, m.messages[0].Role)
	assert.Equal(t, "Hello", m.messages[0].Content)
	assert.True(t, m.messages[0].Local)
	assert.True(t, m.sending)
	assert.Empty(t, m.input.Value())

	next, _ := m.Update(chatSentMsg{seq: 1, localID: m.messages[0].ID, reply: "Hi there"})
	m = next.(chatScreen)
	assert.False(t, m.sending)
	require.Len(t, m.messages, 2)
	assert.Equal(t, model.RoleUser, m.messages[0].Role)
	assert.False(t, m.messages[0].Local, "confirmed after the round trip")
	assert.Equal(t, model.RoleAssistant, m.messages[1].Role)
	assert.Equal(t, "Hi there", m.messages[1].Content)
}

func TestSendMessageEmptyReplyAppendsNothing(t *testing.T) {
	m := newTestChat(t)
	m.loading = false
	m.input.SetValue("Hello")
	m, _ = pressEnter(m)

	next, _ := m.Update(chatSentMsg{seq: 1, localID: m.messages[0].ID})
	m = next.(chatScreen)
	assert.Len(t, m.messages, 1)
}

func TestSendMessageFailureKeepsOptimisticMessage(t *testing.T) {
	m := newTestChat(t)
	m.loading = false
	m.input.SetValue("Hello")
	m, _ = pressEnter(m)

	next, _ := m.Update(chatSentMsg{seq: 1, localID: m.messages[0].ID, err: assert.AnError})
	m = next.(chatScreen)
	assert.False(t, m.sending)
	assert.Equal(t, "Failed to send message. Please try again.", m.errMsg)
	// Not rolled back: the message stays, marked undelivered.
	require.Len(t, m.messages, 1)
	assert.Equal(t, "Hello", m.messages[0].Content)
	assert.True(t, m.messages[0].Failed)
	assert.Contains(t, m.View(), "not delivered")
}

func TestRenderMessageByRole(t *testing.T) {
	m := newTestChat(t)
	m.philosopher = &model.Philosopher{ID: "kafka", Name: "Franz Kafka"}

	system := m.renderMessage(model.Message{Role: model.RoleSystem, Content: "changed philosopher"}, 80)
	assert.Contains(t, system, "changed philosopher")

	user := m.renderMessage(model.NewLocalMessage(model.RoleUser, "hi"), 80)
	assert.Contains(t, user, "hi")
	assert.Contains(t, user, "A", "user avatar shows the username's first letter")

	assistant := m.renderMessage(model.NewLocalMessage(model.RoleAssistant, "greetings"), 80)
	assert.Contains(t, assistant, "greetings")
	assert.Contains(t, assistant, "F", "assistant avatar shows the philosopher's initial")
}

func TestSidebarSelectionNavigates(t *testing.T) {
	m := newTestChat(t)
	m.loading = false
	m.sessions = []model.ChatSession{{ID: "s1"}, {ID: "s2"}}
	m.sidebarFocus = true
	m.sidebarCursor = 1

	_, cmd := pressEnter(m)
	require.NotNil(t, cmd)
	nav, ok := cmd().(navigateMsg)
	require.True(t, ok)
	assert.Equal(t, screenChat, nav.to.kind)
	assert.Equal(t, "s2", nav.to.sessionID)
}

func TestSidebarOverlayTogglesOnNarrowViewport(t *testing.T) {
	client, mgr := testDeps(t, true)
	m := newChatScreen(client, mgr, "s1", 1, 80, 30)
	require.True(t, m.narrow())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(chatScreen)
	assert.True(t, m.overlayOpen)
	assert.True(t, m.sidebarFocus)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(chatScreen)
	assert.False(t, m.overlayOpen)
	assert.False(t, m.sidebarFocus)
}

func TestPhilosopherChangeRefetchesSession(t *testing.T) {
	m := newTestChat(t)
	m.loading = false
	m.gotSession = true
	m.gotPhil = true

	next, cmd := m.Update(chatChangedMsg{seq: 1})
	m = next.(chatScreen)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.False(t, m.gotSession)
	assert.False(t, m.gotPhil)
}
