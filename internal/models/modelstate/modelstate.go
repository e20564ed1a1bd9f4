// Package modelstate provides types for the durable application state snapshot.

package modelstate

import (
	"time"

	"github.com/shopspring/decimal"
)

// StorageKey is the fixed key under which the whole snapshot is persisted.
const StorageKey = "review-app-state"

// Transaction types recorded in the ledger.
const (
	TxWelcomeBonus      = "welcome_bonus"
	TxEvaluationEarning = "evaluation_earning"
	TxWithdrawal        = "withdrawal"
)

// Answer kinds forming the tagged union of evaluation answers.
const (
	AnswerChoice = "choice"
	AnswerRating = "rating"
	AnswerText   = "text"
)

type (
	// SessionUser is the session-scoped identity held by the state store.
	SessionUser struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
		Demo         bool      `json:"demo"`
	}
	// LedgerEntry is one signed monetary transaction, append-only.
	LedgerEntry struct {
		ID          string          `json:"id"`
		Type        string          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		CreatedAt   time.Time       `json:"created_at"`
	}
	// AnswerValue is a tagged union of the three supported answer payloads.
	AnswerValue struct {
		Kind   string `json:"kind"`
		Choice string `json:"choice,omitempty"`
		Rating int    `json:"rating,omitempty"`
		Text   string `json:"text,omitempty"`
	}
	// EvaluationRecord tracks one evaluation through its stages to completion.
	EvaluationRecord struct {
		ID          string          `json:"id"`
		ProductID   string          `json:"product_id"`
		Kind        string          `json:"kind"`
		Stage       int             `json:"stage"`
		Completed   bool            `json:"completed"`
		Earned      decimal.Decimal `json:"earned"`
		StartedAt   time.Time       `json:"started_at"`
		CompletedAt *time.Time      `json:"completed_at,omitempty"`
		Answers     []AnswerValue   `json:"answers,omitempty"`
	}
	// DailyStat is one calendar-day bucket of evaluation activity.
	DailyStat struct {
		Count  int             `json:"count"`
		Earned decimal.Decimal `json:"earned"`
	}
	// Snapshot is the entire state-store shape persisted as a single blob
	// and restored verbatim on load.
	Snapshot struct {
		User                 *SessionUser         `json:"user,omitempty"`
		Transactions         []LedgerEntry        `json:"transactions"`
		CompletedEvaluations []EvaluationRecord   `json:"completed_evaluations"`
		DailyStats           map[string]DailyStat `json:"daily_stats"`
		TotalEvaluations     int                  `json:"total_evaluations"`
		Current              *EvaluationRecord    `json:"current_evaluation,omitempty"`
		LastLogoutAt         *time.Time           `json:"last_logout_at,omitempty"`
	}
)

// NewSnapshot returns an empty snapshot with initialized containers.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Transactions:         []LedgerEntry{},
		CompletedEvaluations: []EvaluationRecord{},
		DailyStats:           make(map[string]DailyStat),
	}
}
