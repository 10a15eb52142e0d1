package models

import "time"

type User struct {
	ID           int64     `json:"id" yaml:"id"`
	FirstName    string    `json:"first_name" yaml:"first_name"`
	LastName     string    `json:"last_name" yaml:"last_name"`
	Email        string    `json:"email" yaml:"email"`
	PasswordHash string    `json:"-" yaml:"-"`
	Role         string    `json:"role" yaml:"role"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is an authenticated user session kept in the session store.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
