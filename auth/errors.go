package auth

import (
	"encoding/json"
	"errors"

	"github.com/puyokura/philoterm/api"
)

const (
	genericLoginMessage    = "Login failed. Please try again."
	genericRegisterMessage = "Registration failed. Please try again."
)

// errorBody is the union of the validation shapes the backend returns.
type errorBody struct {
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
	Username       []string `json:"username"`
	Email          []string `json:"email"`
	Password       []string `json:"password"`
}

// loginMessage extracts a message from a failed login, in order of
// precedence: detail, first non-field error, a plain-string body, then
// the generic fallback. Network errors get the generic fallback too.
func loginMessage(err error) string {
	body, ok := responseBody(err)
	if !ok {
		return genericLoginMessage
	}

	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if len(parsed.NonFieldErrors) > 0 {
			return parsed.NonFieldErrors[0]
		}
	}
	if s, ok := stringBody(body); ok {
		return s
	}
	return genericLoginMessage
}

// registerMessage is the register variant: detail, then the first
// username/email/password field error, then a plain-string body, then
// the generic fallback.
func registerMessage(err error) string {
	body, ok := responseBody(err)
	if !ok {
		return genericRegisterMessage
	}

	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case len(parsed.Username) > 0:
			return "Username: " + parsed.Username[0]
		case len(parsed.Email) > 0:
			return "Email: " + parsed.Email[0]
		case len(parsed.Password) > 0:
			return "Password: " + parsed.Password[0]
		}
	}
	if s, ok := stringBody(body); ok {
		return s
	}
	return genericRegisterMessage
}

func responseBody(err error) ([]byte, bool) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
		return apiErr.Body, true
	}
	return nil, false
}

// stringBody handles backends that return a bare JSON string as the
// whole error body.
func stringBody(body []byte) (string, bool) {
	var s string
	if json.Unmarshal(body, &s) == nil && s != "" {
		return s, true
	}
	return "", false
}
