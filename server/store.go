package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/puyokura/philoterm/model"
)

var (
	errUserExists      = errors.New("username already taken")
	errBadCredentials  = errors.New("invalid username or password")
	errSessionNotFound = errors.New("session not found")
)

// Store is the dev server's sqlite-backed persistence for users,
// sessions, and messages.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		philosopher TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions (id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RegisterUser hashes the password and creates the account.
func (s *Store) RegisterUser(username, email, password string) (*model.User, error) {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, errUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, string(hash))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.User{ID: int(id), Username: username, Email: email}, nil
}

// Authenticate checks the password and returns the user.
func (s *Store) Authenticate(username, password string) (*model.User, error) {
	var user model.User
	var hash string
	err := s.db.QueryRow("SELECT id, username, email, password_hash FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.Email, &hash)
	if err == sql.ErrNoRows {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return &user, nil
}

// UserByID loads a user record.
func (s *Store) UserByID(id int) (*model.User, error) {
	var user model.User
	err := s.db.QueryRow("SELECT id, username, email FROM users WHERE id = ?",
		id).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSession starts a session and seeds it with the philosopher's
// system message.
func (s *Store) CreateSession(userID int, philosopher, systemMessage string) (*model.ChatSession, error) {
	now := time.Now().UTC()
	session := &model.ChatSession{
		ID:          uuid.NewString(),
		Philosopher: philosopher,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, user_id, philosopher, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		session.ID, userID, philosopher, now, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddMessage(session.ID, model.RoleSystem, systemMessage); err != nil {
		return nil, err
	}
	return session, nil
}

// SessionsByUser lists the user's sessions, most recently updated
// first, without message threads.
func (s *Store) SessionsByUser(userID int) ([]model.ChatSession, error) {
	rows, err := s.db.Query(
		"SELECT id, philosopher, summary, created_at, updated_at FROM sessions WHERE user_id = ? ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.ChatSession{}
	for rows.Next() {
		var session model.ChatSession
		if err := rows.Scan(&session.ID, &session.Philosopher, &session.Summary,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SessionByID loads one of the user's sessions with its full thread.
func (s *Store) SessionByID(id string, userID int) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.QueryRow(
		"SELECT id, philosopher, summary, created_at, updated_at FROM sessions WHERE id = ? AND user_id = ?",
		id, userID).Scan(&session.ID, &session.Philosopher, &session.Summary,
		&session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT id, role, content, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp, id",
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	session.Messages = []model.Message{}
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		session.Messages = append(session.Messages, msg)
	}
	return &session, rows.Err()
}

// AddMessage appends a message to a session and bumps its timestamp.
func (s *Store) AddMessage(sessionID string, role model.Role, content string) (*model.Message, error) {
	msg := &model.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)",
		msg.ID, sessionID, string(role), content, msg.Timestamp)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec("UPDATE sessions SET updated_at = ? WHERE id = ?", msg.Timestamp, sessionID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// AssistantCount returns how many assistant messages a session has.
// The canned-reply rotation is keyed off it.
func (s *Store) AssistantCount(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ? AND role = 'assistant'",
		sessionID).Scan(&n)
	return n, err
}

// ChangePhilosopher switches the session's persona and replaces its
// system message, like the production backend does.
func (s *Store) ChangePhilosopher(sessionID string, userID int, philosopher, systemMessage string) error {
	res, err := s.db.Exec("UPDATE sessions SET philosopher = ? WHERE id = ? AND user_id = ?",
		philosopher, sessionID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errSessionNotFound
	}

	if _, err := s.db.Exec("DELETE FROM messages WHERE session_id = ? AND role = 'system'", sessionID); err != nil {
		return err
	}
	_, err = s.AddMessage(sessionID, model.RoleSystem, systemMessage)
	return err
}
