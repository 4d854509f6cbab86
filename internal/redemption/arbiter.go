// Package redemption arbitrates reward redemptions. The whole redemption is
// one database transaction: balance debit, stock decrement, code claim, and
// the ledger entry commit or roll back together.
package redemption

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/comebin/ecobin-bot/internal/errors"
)

// Receipt describes a successful redemption. Code is set only for
// code-bearing rewards.
type Receipt struct {
	RewardName string
	Code       *string
	NewBalance int64
}

// Arbiter executes redemptions against the store.
type Arbiter struct {
	db  *sql.DB
	log *slog.Logger
}

// NewArbiter creates an Arbiter backed by the given database handle.
func NewArbiter(db *sql.DB, log *slog.Logger) *Arbiter {
	if log == nil {
		log = slog.Default()
	}

	return &Arbiter{
		db:  db,
		log: log,
	}
}

// Redeem exchanges the user's points for the reward. It fails with
// ErrRewardNotFound, ErrInsufficientBalance, ErrOutOfStock, or
// ErrCodePoolExhausted; on any failure nothing is deducted.
func (a *Arbiter) Redeem(ctx context.Context, userID, rewardID int64) (*Receipt, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redeem transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		rewardName     string
		pointsRequired int64
		quantity       int64
		codeRequired   bool
	)
	err = tx.QueryRowContext(
		ctx,
		`SELECT name, points_required, quantity_available, code_required FROM rewards WHERE id = $1 FOR UPDATE`,
		rewardID,
	).Scan(&rewardName, &pointsRequired, &quantity, &codeRequired)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrRewardNotFound
		}
		return nil, fmt.Errorf("select reward: %w", err)
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotRegistered
		}
		return nil, fmt.Errorf("select user balance: %w", err)
	}

	if balance < pointsRequired {
		return nil, apperrors.ErrInsufficientBalance
	}

	if quantity <= 0 {
		return nil, apperrors.ErrOutOfStock
	}

	var issuedCode *string
	if codeRequired {
		// Claim exactly one unused code. SKIP LOCKED keeps two concurrent
		// redeemers from ever selecting the same row.
		const claim = `
			UPDATE redemption_codes
			SET used = true, used_by = $1, used_at = $2
			WHERE id = (
				SELECT id FROM redemption_codes
				WHERE reward_id = $3 AND NOT used
				ORDER BY id
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING code
		`

		var code string
		err = tx.QueryRowContext(ctx, claim, userID, time.Now().UTC(), rewardID).Scan(&code)
		if err != nil {
			if stdErrors.Is(err, sql.ErrNoRows) {
				// Pool exhausted: roll back with balance and stock untouched.
				return nil, apperrors.ErrCodePoolExhausted
			}
			return nil, fmt.Errorf("claim redemption code: %w", err)
		}
		issuedCode = &code
	}

	var newBalance int64
	err = tx.QueryRowContext(
		ctx,
		`UPDATE users SET points = points - $1 WHERE id = $2 RETURNING points`,
		pointsRequired,
		userID,
	).Scan(&newBalance)
	if err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE rewards SET quantity_available = quantity_available - 1 WHERE id = $1 AND quantity_available > 0`,
		rewardID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement reward stock: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, apperrors.ErrOutOfStock
	}

	description := fmt.Sprintf("Redeemed reward: %s", rewardName)
	if issuedCode != nil {
		description = fmt.Sprintf("Redeemed reward: %s (code issued)", rewardName)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO transactions (user_id, points_change, description, created_at) VALUES ($1, $2, $3, $4)`,
		userID,
		-pointsRequired,
		description,
		time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("append redemption transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redeem transaction: %w", err)
	}

	a.log.Info("reward redeemed",
		slog.Int64("user_id", userID),
		slog.Int64("reward_id", rewardID),
		slog.String("reward", rewardName),
		slog.Int64("balance", newBalance),
	)

	return &Receipt{
		RewardName: rewardName,
		Code:       issuedCode,
		NewBalance: newBalance,
	}, nil
}
