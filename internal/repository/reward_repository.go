package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// RewardRepository defines read operations over the reward catalog.
// Stock mutation happens only inside the redemption transaction.
type RewardRepository interface {
	List(ctx context.Context) ([]*domain.Reward, error)
	FindByID(ctx context.Context, id int64) (*domain.Reward, error)
}

type rewardRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRewardRepository creates a new SQL-backed reward repository.
func NewRewardRepository(db *sql.DB, log *slog.Logger) RewardRepository {
	return &rewardRepository{
		db:  db,
		log: log,
	}
}

// List returns all rewards ordered by id.
func (r *rewardRepository) List(ctx context.Context) ([]*domain.Reward, error) {
	const query = `
		SELECT id, name, description, points_required, quantity_available, code_required
		FROM rewards
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list rewards", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*domain.Reward
	for rows.Next() {
		var reward domain.Reward
		if err := rows.Scan(
			&reward.ID,
			&reward.Name,
			&reward.Description,
			&reward.PointsRequired,
			&reward.QuantityAvailable,
			&reward.CodeRequired,
		); err != nil {
			return nil, fmt.Errorf("scan reward row: %w", err)
		}
		rewards = append(rewards, &reward)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward rows: %w", err)
	}

	return rewards, nil
}

// FindByID returns a single reward or sql.ErrNoRows.
func (r *rewardRepository) FindByID(ctx context.Context, id int64) (*domain.Reward, error) {
	const query = `
		SELECT id, name, description, points_required, quantity_available, code_required
		FROM rewards
		WHERE id = $1
	`

	var reward domain.Reward
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reward.ID,
		&reward.Name,
		&reward.Description,
		&reward.PointsRequired,
		&reward.QuantityAvailable,
		&reward.CodeRequired,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch reward", slog.Int64("reward_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select reward by id: %w", err)
	}

	return &reward, nil
}
