package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/puyokura/philoterm/model"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// Store persists the bearer token and user record on disk. The two
// entries are always written together and removed together.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Save writes the token and user. Files are 0600: the token is a
// credential.
func (s *Store) Save(token string, user model.User) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, userFile), data, 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0600)
}

// Load reads the stored token and user. ok is false when either entry is
// missing or unreadable; a half-present pair counts as absent.
func (s *Store) Load() (token string, user model.User, ok bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return "", model.User{}, false
	}
	token = strings.TrimSpace(string(raw))
	if token == "" {
		return "", model.User{}, false
	}

	data, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		return "", model.User{}, false
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return "", model.User{}, false
	}
	return token, user, true
}

// Clear removes both entries. Missing files are not an error.
func (s *Store) Clear() error {
	errToken := os.Remove(filepath.Join(s.dir, tokenFile))
	errUser := os.Remove(filepath.Join(s.dir, userFile))
	if errToken != nil && !os.IsNotExist(errToken) {
		return errToken
	}
	if errUser != nil && !os.IsNotExist(errUser) {
		return errUser
	}
	return nil
}
