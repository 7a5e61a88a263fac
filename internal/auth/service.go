package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// Service backs the admin allow-list check and the user profile lookups. The
// admin check is a membership query against the admins table, nothing more.
type Service struct {
	db *sql.DB
}

type User struct {
	ID         int64      `json:"id"`
	TelegramID int64      `json:"telegram_id"`
	Username   string     `json:"username,omitempty"`
	FullName   string     `json:"full_name"`
	IsAdmin    bool       `json:"is_admin"`
	LastActive *time.Time `json:"last_active,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// IsAdmin reports whether the telegram id is on the admin allow-list.
func (s *Service) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM admins WHERE telegram_id = $1
	`, telegramID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return true, nil
}

func (s *Service) GetUser(ctx context.Context, telegramID int64) (*User, error) {
	u := &User{}
	var (
		username   sql.NullString
		fullName   sql.NullString
		lastActive sql.NullTime
		createdAt  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, full_name, is_admin, last_active, created_at
		FROM users
		WHERE telegram_id = $1
	`, telegramID).Scan(&u.ID, &u.TelegramID, &username, &fullName, &u.IsAdmin, &lastActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.Username = username.String
	u.FullName = fullName.String
	if lastActive.Valid {
		u.LastActive = &lastActive.Time
	}
	if createdAt.Valid {
		u.CreatedAt = &createdAt.Time
	}
	return u, nil
}

// SaveUser upserts a user profile keyed by telegram id, refreshing the
// last-active timestamp. The is_admin flag is never modified here.
func (s *Service) SaveUser(ctx context.Context, telegramID int64, fullName, username string) (*User, error) {
	now := time.Now()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, full_name, last_active, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (telegram_id)
		DO UPDATE SET username = EXCLUDED.username, full_name = EXCLUDED.full_name, last_active = EXCLUDED.last_active
	`, telegramID, username, fullName, now); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return s.GetUser(ctx, telegramID)
}

// TouchUser refreshes the last-active timestamp without touching the profile.
func (s *Service) TouchUser(ctx context.Context, telegramID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_active = $2 WHERE telegram_id = $1
	`, telegramID, time.Now()); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}
