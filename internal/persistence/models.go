package persistence

import (
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
)

// User is a consultant or admin account.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         agenda.Role
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
