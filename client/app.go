package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/auth"
)

// screenKind names the client's navigation surface.
type screenKind int

const (
	screenLogin screenKind = iota
	screenRegister
	screenDashboard
	screenChat
)

// route is a navigation target. SessionID is only meaningful for
// screenChat.
type route struct {
	kind      screenKind
	sessionID string
}

// navigateMsg asks the app to switch screens. Screens emit it instead
// of constructing each other.
type navigateMsg struct {
	to route
}

// logoutMsg asks the app to clear auth state and return to login.
type logoutMsg struct{}

func navigate(to route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

// screenModel is what every screen implements. Update returns the
// replacement screen so screens stay value types, like bubbletea
// models.
type screenModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screenModel, tea.Cmd)
	View() string
}

// appModel routes between screens and guards the protected ones. It is
// the only place screens are constructed, so an unauthenticated user
// can never reach dashboard or chat: any attempt lands on login
// instead.
type appModel struct {
	api  *api.Client
	auth *auth.Manager

	screen screenModel
	// seq increments on every screen switch. Fetch results are tagged
	// with the seq they were issued under, so replies that land after
	// the screen was torn down are dropped instead of mutating its
	// replacement.
	seq int

	width  int
	height int
}

// newApp builds the root model. initial is where the user asked to
// start (the --session flag deep-links into a chat); the guard decides
// where they actually land.
func newApp(client *api.Client, mgr *auth.Manager, initial route) appModel {
	a := appModel{api: client, auth: mgr}
	a.screen = a.buildScreen(a.resolve(initial))
	return a
}

// resolve applies the route guard: protected routes require an
// authenticated manager, everything else falls back to login.
func (a appModel) resolve(to route) route {
	switch to.kind {
	case screenDashboard, screenChat:
		if !a.auth.Authenticated() {
			return route{kind: screenLogin}
		}
	}
	return to
}

func (a *appModel) buildScreen(to route) screenModel {
	a.seq++
	switch to.kind {
	case screenRegister:
		return newRegisterScreen(a.auth, a.seq, a.width, a.height)
	case screenDashboard:
		return newDashboardScreen(a.api, a.auth, a.seq, a.width, a.height)
	case screenChat:
		return newChatScreen(a.api, a.auth, to.sessionID, a.seq, a.width, a.height)
	default:
		return newLoginScreen(a.auth, a.seq, a.width, a.height)
	}
}

func (a appModel) Init() tea.Cmd {
	return a.screen.Init()
}

func (a appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case navigateMsg:
		a.screen = a.buildScreen(a.resolve(msg.to))
		return a, a.screen.Init()

	case logoutMsg:
		a.auth.Logout()
		a.screen = a.buildScreen(route{kind: screenLogin})
		return a, a.screen.Init()
	}

	var cmd tea.Cmd
	a.screen, cmd = a.screen.Update(msg)
	return a, cmd
}

func (a appModel) View() string {
	return a.screen.View()
}
