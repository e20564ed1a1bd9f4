// Package modelqueue provides types for queueing pieces of data.

package modelqueue

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout dispatch statuses reported through the out-queue.
const (
	StatusPending    = "PENDING"
	StatusDispatched = "DISPATCHED"
	StatusFailed     = "FAILED"
)

// PayoutQueueEntry is one withdrawal awaiting dispatch to the payout provider.
type PayoutQueueEntry struct {
	WithdrawalID string
	UserID       string
	Amount       decimal.Decimal
	Status       string
	RetryCount   int
	LastChecked  time.Time
}
