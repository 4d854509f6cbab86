// Package session tracks which registered user is currently bound to the
// shared bin and therefore receives credit for disposal events.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// Registry owns the singleton active-session row. Rebinding is
// last-writer-wins; the previous holder is read and overwritten inside one
// transaction so callers never report a stale operator.
type Registry struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRegistry creates a Registry backed by the given database handle.
func NewRegistry(db *sql.DB, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		db:  db,
		log: log,
	}
}

// Activate binds userID as the bin operator and returns the previous holder,
// or nil when the bin had no operator or the caller rebinds themselves.
func (r *Registry) Activate(ctx context.Context, userID int64) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin activate transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Lock the binding row and read the previous holder in the same
	// transaction, so the caller never reports a stale operator.
	const prevQuery = `
		SELECT u.id, u.telegram_id, u.name
		FROM active_session s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = 1
		FOR UPDATE OF s
	`

	var previous domain.User
	hasPrevious := true
	err = tx.QueryRowContext(ctx, prevQuery).Scan(&previous.ID, &previous.TelegramID, &previous.Name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("select previous operator: %w", err)
		}
		hasPrevious = false
	}

	const upsert = `
		INSERT INTO active_session (id, user_id, activated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, activated_at = EXCLUDED.activated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("bind bin operator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activate transaction: %w", err)
	}

	r.log.Info("bin operator bound", slog.Int64("user_id", userID))

	if hasPrevious && previous.ID != userID {
		return &previous, nil
	}

	return nil, nil
}

// GetActive returns the user currently bound to the bin, or nil when unbound.
func (r *Registry) GetActive(ctx context.Context) (*domain.User, error) {
	const query = `
		SELECT u.id, u.telegram_id, u.phone_number, u.name, u.points, u.created_at
		FROM active_session s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = 1
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query).Scan(
		&user.ID,
		&user.TelegramID,
		&user.PhoneNumber,
		&user.Name,
		&user.Points,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("select active operator: %w", err)
	}

	return &user, nil
}
