package domain

import "strings"

// User is the account that owns a session.
type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// DisplayName returns "First Last", falling back to the email address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Session is an authenticated identity and its bearer token.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"-"`
}

// Valid reports whether both halves of the session are present.
func (s *Session) Valid() bool {
	return s != nil && strings.TrimSpace(s.Token) != "" && (s.User.ID != "" || s.User.Email != "")
}

// Credentials are forwarded verbatim to the login endpoint.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
