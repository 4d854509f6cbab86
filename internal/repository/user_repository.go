package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateName(ctx context.Context, userID int64, name string) error
	Leaderboard(ctx context.Context, limit int) ([]*domain.User, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// FindByTelegramID retrieves a user from the database by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
		SELECT id, telegram_id, phone_number, name, points, created_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, telegramID)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.PhoneNumber,
		&user.Name,
		&user.Points,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch user by telegram id", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}

	return &user, nil
}

// Create persists a new user record and fills in the generated ID.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, phone_number, name, points, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.TelegramID,
		user.PhoneNumber,
		user.Name,
		user.Points,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if r.log != nil {
			r.log.Error("failed to create user", slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateName stores the display name collected during registration.
func (r *userRepository) UpdateName(ctx context.Context, userID int64, name string) error {
	const query = `UPDATE users SET name = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, name, userID); err != nil {
		if r.log != nil {
			r.log.Error("failed to update user name", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return fmt.Errorf("update user name: %w", err)
	}

	return nil
}

// Leaderboard returns the top users by points, ties broken by insertion order.
func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.User, error) {
	const query = `
		SELECT id, telegram_id, phone_number, name, points, created_at
		FROM users
		ORDER BY points DESC, id ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to query leaderboard", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.TelegramID,
			&user.PhoneNumber,
			&user.Name,
			&user.Points,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}

	return users, nil
}
