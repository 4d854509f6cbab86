package domain

import "time"

// Reward is a redeemable catalog entry with a bounded stock.
// CodeRequired marks rewards that hand out a one-time-use code on redemption.
type Reward struct {
	ID                int64
	Name              string
	Description       string
	PointsRequired    int64
	QuantityAvailable int64
	CodeRequired      bool
}

// RedemptionCode is a uniquely consumable secret belonging to a reward.
// Used transitions false to true exactly once.
type RedemptionCode struct {
	ID       int64
	Code     string
	RewardID int64
	Used     bool
	UsedBy   *int64
	UsedAt   *time.Time
}
