package domain

import "time"

// Transaction is an immutable ledger entry. Rows are only ever appended;
// the sum of PointsChange per user equals that user's current balance.
type Transaction struct {
	ID           int64
	UserID       int64
	PointsChange int64
	Description  string
	CreatedAt    time.Time
}
