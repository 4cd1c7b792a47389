package domain

import (
	"strings"
	"time"
)

// Session is the identity provider session observed by the client
type Session struct {
	AccessToken  string    `yaml:"access_token" json:"access_token"`
	RefreshToken string    `yaml:"refresh_token" json:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at" json:"expires_at"`
	UserID       string    `yaml:"user_id" json:"user_id"`
	Email        string    `yaml:"email" json:"email"`
}

// Valid reports whether the session has a token that has not expired yet
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// NeedsRefresh reports whether the token expires within the given window
func (s *Session) NeedsRefresh(now time.Time, window time.Duration) bool {
	if s == nil || s.RefreshToken == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(window).Before(s.ExpiresAt)
}

// DisplayName returns the local part of the email, "User" when unknown
func (s *Session) DisplayName() string {
	if s == nil || s.Email == "" {
		return "User"
	}
	name, _, _ := strings.Cut(s.Email, "@")
	if name == "" {
		return "User"
	}
	return name
}

// Initials returns two upper-case letters for the avatar in settings
func (s *Session) Initials() string {
	src := "U"
	if s != nil && s.Email != "" {
		src = s.Email
	}
	if len(src) > 2 {
		src = src[:2]
	}
	return strings.ToUpper(src)
}
