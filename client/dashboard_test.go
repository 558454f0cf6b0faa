package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/philoterm/model"
)

var testPhilosophers = []model.Philosopher{
	{ID: "marcus_aurelius", Name: "Marcus Aurelius"},
	{ID: "nietzsche", Name: "Friedrich Nietzsche"},
}

func loadedDashboard(t *testing.T, sessions []model.ChatSession) dashboardScreen {
	t.Helper()
	client, mgr := testDeps(t, true)
	m := newDashboardScreen(client, mgr, 1, 120, 40)

	next, _ := m.Update(dashPhilosophersMsg{seq: 1, items: testPhilosophers})
	m = next.(dashboardScreen)
	next, _ = m.Update(dashSessionsMsg{seq: 1, items: sessions})
	return next.(dashboardScreen)
}

func TestDashboardWithoutSessions(t *testing.T) {
	m := loadedDashboard(t, nil)

	assert.False(t, m.loading)
	view := m.View()
	assert.Contains(t, view, "For you")
	assert.Contains(t, view, "Marcus Aurelius")
	assert.Contains(t, view, "Friedrich Nietzsche")
	assert.NotContains(t, view, "Recent Conversations")
}

func TestDashboardWithOneSession(t *testing.T) {
	m := loadedDashboard(t, []model.ChatSession{
		{ID: "s1", Philosopher: "marcus_aurelius"},
	})

	view := m.View()
	require.Contains(t, view, "Recent Conversations")
	// One card, labeled with the resolved philosopher name: the name
	// shows up once in the grid and once in the sessions section.
	assert.Equal(t, 2, strings.Count(view, "Marcus Aurelius"))
}

func TestDashboardUnknownPhilosopherFallsBackToID(t *testing.T) {
	m := loadedDashboard(t, []model.ChatSession{
		{ID: "s1", Philosopher: "diogenes"},
	})
	assert.Contains(t, m.View(), "diogenes")
}

func TestDashboardFetchFailureShowsSingleBanner(t *testing.T) {
	client, mgr := testDeps(t, true)
	m := newDashboardScreen(client, mgr, 1, 120, 40)

	next, _ := m.Update(dashPhilosophersMsg{seq: 1, err: assert.AnError})
	m = next.(dashboardScreen)
	assert.False(t, m.loading)
	assert.Equal(t, "Failed to load data. Please try again.", m.errMsg)

	// The second rejection does not stack another banner.
	next, _ = m.Update(dashSessionsMsg{seq: 1, err: assert.AnError})
	m = next.(dashboardScreen)
	assert.Equal(t, 1, strings.Count(m.View(), "Failed to load data"))
}

func TestDashboardStaleResultsDropped(t *testing.T) {
	client, mgr := testDeps(t, true)
	m := newDashboardScreen(client, mgr, 2, 120, 40)

	next, _ := m.Update(dashPhilosophersMsg{seq: 1, items: testPhilosophers})
	m = next.(dashboardScreen)
	assert.Empty(t, m.philosophers, "result from a torn-down screen must be discarded")
	assert.True(t, m.loading)
}

func TestDashboardCreateFailureClearsLoading(t *testing.T) {
	m := loadedDashboard(t, nil)
	m.creating = true

	next, _ := m.Update(dashSessionCreatedMsg{seq: 1, err: assert.AnError})
	m = next.(dashboardScreen)
	assert.False(t, m.creating, "loading must be cleared explicitly since no navigation happens")
	assert.NotEmpty(t, m.errMsg)
}

func TestDashboardCreateSuccessNavigates(t *testing.T) {
	m := loadedDashboard(t, nil)
	m.creating = true

	_, cmd := m.Update(dashSessionCreatedMsg{seq: 1, session: &model.ChatSession{ID: "s-new"}})
	require.NotNil(t, cmd)
	msg := cmd()
	nav, ok := msg.(navigateMsg)
	require.True(t, ok)
	assert.Equal(t, screenChat, nav.to.kind)
	assert.Equal(t, "s-new", nav.to.sessionID)
}
