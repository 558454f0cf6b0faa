// Package api is the HTTP client for the philosopher chat backend.
//
// Each backend operation maps to one method. The client is a direct
// pass-through: no retries, no caching, no timeouts beyond what the
// caller's context imposes. After login the bearer token is attached to
// every request automatically.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/puyokura/philoterm/model"
)

// Error is a non-2xx response. Body keeps the raw response so callers
// can extract backend validation messages from it.
type Error struct {
	Status int
	Body   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: server returned %d", e.Status)
}

// Client talks to the chat backend. Safe for concurrent use; bubbletea
// commands run in their own goroutines.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the given base URL, e.g.
// "http://localhost:8000/api".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

// SetToken attaches a bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token from subsequent requests.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Body: data}
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", creds, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", reg, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Philosophers lists all available personas.
func (c *Client) Philosophers(ctx context.Context) ([]model.Philosopher, error) {
	var phils []model.Philosopher
	if err := c.do(ctx, http.MethodGet, "/philosophers/", nil, &phils); err != nil {
		return nil, err
	}
	return phils, nil
}

// Philosopher fetches a single persona by ID.
func (c *Client) Philosopher(ctx context.Context, id string) (*model.Philosopher, error) {
	var phil model.Philosopher
	if err := c.do(ctx, http.MethodGet, "/philosophers/"+id+"/", nil, &phil); err != nil {
		return nil, err
	}
	return &phil, nil
}

// Sessions lists the user's chat sessions.
func (c *Client) Sessions(ctx context.Context) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	if err := c.do(ctx, http.MethodGet, "/sessions/", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession starts a new session with the given philosopher.
func (c *Client) CreateSession(ctx context.Context, philosopherID string) (*model.ChatSession, error) {
	body := map[string]string{"philosopher": philosopherID}
	var session model.ChatSession
	if err := c.do(ctx, http.MethodPost, "/sessions/create_session/", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Session fetches a session with its full message thread.
func (c *Client) Session(ctx context.Context, id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SendMessage posts a user message and returns the assistant's reply
// text, which may be empty.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	body := map[string]string{"message": text}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/add_message/", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// ChangePhilosopher switches an existing session to another persona.
func (c *Client) ChangePhilosopher(ctx context.Context, sessionID, philosopherID string) (*model.ChatSession, error) {
	body := map[string]string{"philosopher": philosopherID}
	var session model.ChatSession
	if err := c.do(ctx, http.MethodPatch, "/sessions/"+sessionID+"/change-philosopher/", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
