package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/persistence"
)

const userColumns = `id, email, name, role, password_hash, disabled, created_at, updated_at`

// CreateUser inserts a consultant or admin account.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, strings.ToLower(user.Email), user.Name, string(user.Role),
		user.PasswordHash, boolToInt(user.Disabled),
		user.CreatedAt.UTC().Format(time.RFC3339), user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert user %s: %w", user.ID, err)
	}
	return nil
}

// UpdateUser overwrites an existing account.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	query := `UPDATE users SET email = ?, name = ?, role = ?, password_hash = ?, disabled = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		strings.ToLower(user.Email), user.Name, string(user.Role),
		user.PasswordHash, boolToInt(user.Disabled),
		user.UpdatedAt.UTC().Format(time.RFC3339),
		user.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: update user %s: %w", user.ID, err)
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

// GetUser loads an account by id.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail loads an account by email, case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

// ListUsers returns every account ordered by name.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var role string
	var disabled int
	var createdAt, updatedAt string

	err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.PasswordHash, &disabled, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.User{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.User{}, err
	}
	user.Role = agenda.Role(role)
	user.Disabled = disabled != 0
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: decode created_at of %s: %w", user.ID, err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: decode updated_at of %s: %w", user.ID, err)
	}
	return user, nil
}
