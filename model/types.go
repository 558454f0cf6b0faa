package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents the authenticated account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Philosopher is a chat persona offered by the backend.
type Philosopher struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry in a chat thread.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Local is set on messages synthesized client-side before the server
	// has confirmed them. Not part of the wire format.
	Local bool `json:"-"`
	// Failed marks a local message whose send was rejected. It stays in
	// the thread but renders as undelivered.
	Failed bool `json:"-"`
}

// NewLocalMessage builds a client-side message. IDs are random so they
// cannot collide with server-assigned ones on the next full fetch.
func NewLocalMessage(role Role, content string) Message {
	return Message{
		ID:        "local-" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Local:     true,
	}
}

// ChatSession is a persisted conversation with one philosopher.
type ChatSession struct {
	ID          string    `json:"id"`
	Philosopher string    `json:"philosopher"` // philosopher ID
	Summary     string    `json:"summary"`
	Messages    []Message `json:"messages,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Title returns the label shown for the session in lists: the summary if
// the backend set one, otherwise the philosopher reference.
func (s ChatSession) Title() string {
	if s.Summary != "" {
		return s.Summary
	}
	return "Chat with " + s.Philosopher
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body. Password2 must repeat
// Password; the backend validates the pair.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// AuthResponse is the success shape of login and register.
type AuthResponse struct {
	Access string `json:"access"`
	User   User   `json:"user"`
}

var avatars = map[string]string{
	"marcus_aurelius": "https://upload.wikimedia.org/wikipedia/commons/thumb/b/bb/Marcus_Aurelius_Metropolitan_Museum.png/440px-Marcus_Aurelius_Metropolitan_Museum.png",
	"nietzsche":       "https://upload.wikimedia.org/wikipedia/commons/thumb/1/1b/Nietzsche187a.jpg/440px-Nietzsche187a.jpg",
	"kafka":           "https://upload.wikimedia.org/wikipedia/commons/thumb/4/4c/Kafka1906_cropped.jpg/440px-Kafka1906_cropped.jpg",
}

const defaultAvatar = "https://via.placeholder.com/150"

// AvatarURL maps a philosopher ID to its portrait image, falling back to
// the placeholder for unknown IDs.
func AvatarURL(id string) string {
	if url, ok := avatars[id]; ok {
		return url
	}
	return defaultAvatar
}
