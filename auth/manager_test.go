package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/model"
)

// fakeBackend accepts ada/secret and rejects everything else with the
// backend's usual body.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login/":
			var creds model.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds.Username == "ada" && creds.Password == "secret" {
				json.NewEncoder(w).Encode(model.AuthResponse{
					Access: "tok-123",
					User:   model.User{ID: 1, Username: "ada", Email: "ada@example.com"},
				})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "No active account found with the given credentials"}`))

		case "/auth/register/":
			json.NewEncoder(w).Encode(model.AuthResponse{
				Access: "tok-456",
				User:   model.User{ID: 2, Username: "grace", Email: "grace@example.com"},
			})

		case "/sessions/":
			// Probe endpoint used to observe the attached token.
			w.Header().Set("X-Token", r.Header.Get("Authorization"))
			w.Write([]byte("[]"))
		}
	}))
}

func newTestManager(t *testing.T, baseURL string) (*Manager, *api.Client, *Store) {
	t.Helper()
	client := api.New(baseURL)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return NewManager(client, store), client, store
}

func TestLoginSuccess(t *testing.T) {
	ts := fakeBackend(t)
	defer ts.Close()
	mgr, client, store := newTestManager(t, ts.URL)

	assert.False(t, mgr.Authenticated())

	res := mgr.Login(context.Background(), "ada", "secret")
	require.True(t, res.OK)
	assert.True(t, mgr.Authenticated())
	require.NotNil(t, mgr.User())
	assert.Equal(t, "ada", mgr.User().Username)

	// Both durable entries match the in-memory state.
	token, user, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "ada", user.Username)

	// The token rides on subsequent requests.
	_, err := client.Sessions(context.Background())
	require.NoError(t, err)
}

func TestLoginFailure(t *testing.T) {
	ts := fakeBackend(t)
	defer ts.Close()
	mgr, _, store := newTestManager(t, ts.URL)

	res := mgr.Login(context.Background(), "ada", "wrong")
	assert.False(t, res.OK)
	assert.Equal(t, "No active account found with the given credentials", res.Message)
	assert.False(t, mgr.Authenticated())
	assert.Nil(t, mgr.User())

	_, _, ok := store.Load()
	assert.False(t, ok)
}

func TestRegisterSuccess(t *testing.T) {
	ts := fakeBackend(t)
	defer ts.Close()
	mgr, _, store := newTestManager(t, ts.URL)

	res := mgr.Register(context.Background(), model.Registration{
		Username: "grace", Email: "grace@example.com", Password: "pw", Password2: "pw",
	})
	require.True(t, res.OK)
	assert.True(t, mgr.Authenticated())

	token, _, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "tok-456", token)
}

func TestLogoutClearsEverything(t *testing.T) {
	ts := fakeBackend(t)
	defer ts.Close()
	mgr, _, store := newTestManager(t, ts.URL)

	require.True(t, mgr.Login(context.Background(), "ada", "secret").OK)
	mgr.Logout()

	assert.False(t, mgr.Authenticated())
	assert.Nil(t, mgr.User())
	_, _, ok := store.Load()
	assert.False(t, ok)

	// Logout with nothing stored is also fine.
	mgr.Logout()
	assert.False(t, mgr.Authenticated())
}

func TestRestore(t *testing.T) {
	client := api.New("http://unused.invalid")
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save("tok-789", model.User{ID: 9, Username: "kurt"}))

	mgr := NewManager(client, store)
	mgr.Restore()

	assert.True(t, mgr.Authenticated())
	require.NotNil(t, mgr.User())
	assert.Equal(t, "kurt", mgr.User().Username)
}

func TestRestoreWithEmptyStore(t *testing.T) {
	client := api.New("http://unused.invalid")
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	mgr := NewManager(client, store)
	mgr.Restore()
	assert.False(t, mgr.Authenticated())
}
