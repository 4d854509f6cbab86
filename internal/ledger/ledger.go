// Package ledger implements the append-only point ledger. A user's balance is
// the sum of their transaction deltas; both are written in one transaction so
// a credit is never observable without its ledger entry.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// Service exposes crediting and bounded history queries over the ledger.
type Service struct {
	db  *sql.DB
	log *slog.Logger
}

// NewService creates a ledger Service backed by the given database handle.
func NewService(db *sql.DB, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		db:  db,
		log: log,
	}
}

// Credit applies delta to the user's balance and appends the matching
// transaction atomically, returning the new balance. Negative deltas that
// would take the balance below zero fail on the store's points check.
func (s *Service) Credit(ctx context.Context, userID int64, delta int64, description string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin credit transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newBalance int64
	err = tx.QueryRowContext(
		ctx,
		`UPDATE users SET points = points + $1 WHERE id = $2 RETURNING points`,
		delta,
		userID,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO transactions (user_id, points_change, description, created_at) VALUES ($1, $2, $3, $4)`,
		userID,
		delta,
		description,
		time.Now().UTC(),
	); err != nil {
		return 0, fmt.Errorf("append transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit credit transaction: %w", err)
	}

	s.log.Info("points credited",
		slog.Int64("user_id", userID),
		slog.Int64("delta", delta),
		slog.Int64("balance", newBalance),
	)

	return newBalance, nil
}

// History returns the user's most recent transactions whose description
// contains filter (case-insensitive), newest first, at most limit rows.
func (s *Service) History(ctx context.Context, userID int64, filter string, limit int) ([]*domain.Transaction, error) {
	const query = `
		SELECT id, user_id, points_change, description, created_at
		FROM transactions
		WHERE user_id = $1 AND description ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.PointsChange, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		transactions = append(transactions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return transactions, nil
}
