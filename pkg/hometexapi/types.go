package hometexapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID accepts both string and numeric identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// AuthUser is one account record returned by login or register.
type AuthUser struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Token     string `json:"token"`
}

// DisplayName prefers name and falls back to "first last".
func (u AuthUser) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// AuthResponse is the backend envelope for auth calls.
type AuthResponse struct {
	Data    []AuthUser `json:"data"`
	Message string     `json:"message,omitempty"`
}

// First returns the first account record, if any.
func (r *AuthResponse) First() (AuthUser, bool) {
	if r == nil || len(r.Data) == 0 {
		return AuthUser{}, false
	}
	return r.Data[0], true
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=6,max=20"`
	Password     string `json:"password" validate:"required,min=6"`
	ConfPassword string `json:"conf_password" validate:"required,eqfield=Password"`
}
