package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/philoterm/model"
)

func TestLoginDecodesAuthResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login/", r.URL.Path)

		var creds model.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ada", creds.Username)

		json.NewEncoder(w).Encode(model.AuthResponse{
			Access: "tok-123",
			User:   model.User{ID: 7, Username: "ada", Email: "ada@example.com"},
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	auth, err := c.Login(context.Background(), model.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", auth.Access)
	assert.Equal(t, "ada", auth.User.Username)
}

func TestBearerTokenAttachedAfterSetToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	c.SetToken("tok-123")
	_, err = c.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)

	c.ClearToken()
	_, err = c.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNonSuccessBecomesError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "nope"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.Session(context.Background(), "s1")
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.JSONEq(t, `{"detail": "nope"}`, string(apiErr.Body))
}

func TestSendMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/s1/add_message/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello", body["message"])

		w.Write([]byte(`{"response": "Hi there"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	reply, err := c.SendMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)
}

func TestCreateSessionSendsPhilosopher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/create_session/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "kafka", body["philosopher"])

		json.NewEncoder(w).Encode(model.ChatSession{ID: "s-new", Philosopher: "kafka"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	session, err := c.CreateSession(context.Background(), "kafka")
	require.NoError(t, err)
	assert.Equal(t, "s-new", session.ID)
}

func TestChangePhilosopher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/sessions/s1/change-philosopher/", r.URL.Path)
		json.NewEncoder(w).Encode(model.ChatSession{ID: "s1", Philosopher: "nietzsche"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	session, err := c.ChangePhilosopher(context.Background(), "s1", "nietzsche")
	require.NoError(t, err)
	assert.Equal(t, "nietzsche", session.Philosopher)
}
