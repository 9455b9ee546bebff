package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/persistence"
)

// CreateSession stores a newly issued session.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) error {
	query := `INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked_at) VALUES (?, ?, ?, ?, ?, NULL)`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession loads a session by token.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at, revoked_at FROM sessions WHERE token = ?`, token)

	var session persistence.Session
	var expiresAt, createdAt string
	var revokedAt sql.NullString
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Session{}, err
	}
	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: decode expires_at of %s: %w", session.ID, err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: decode created_at of %s: %w", session.ID, err)
	}
	if revokedAt.Valid {
		revoked, err := time.Parse(time.RFC3339, revokedAt.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("sqlite: decode revoked_at of %s: %w", session.ID, err)
		}
		session.RevokedAt = &revoked
	}
	return session, nil
}

// RevokeSession marks a session revoked at the given instant.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		revokedAt.UTC().Format(time.RFC3339), token)
	if err != nil {
		return fmt.Errorf("sqlite: revoke session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose validity ended before the
// reference instant.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, reference.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite: delete expired sessions: %w", err)
	}
	return nil
}
