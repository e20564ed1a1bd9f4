// Package modelstorage provides types for storage row scanning.

package modelstorage

import "github.com/shopspring/decimal"

type UserStorageEntry struct {
	ID           uint   `db:"id"`
	UserID       string `db:"user_id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Password     string `db:"password"`
	RegisteredAt string `db:"registered_at"`
	Demo         bool   `db:"is_demo"`
}

type TransactionStorageEntry struct {
	ID          uint            `db:"id"`
	TxID        string          `db:"tx_id"`
	UserID      string          `db:"user_id"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   string          `db:"created_at"`
}

type EvaluationStorageEntry struct {
	ID           uint            `db:"id"`
	EvaluationID string          `db:"evaluation_id"`
	UserID       string          `db:"user_id"`
	ProductID    string          `db:"product_id"`
	Stage        int             `db:"stage"`
	Completed    bool            `db:"completed"`
	Earned       decimal.Decimal `db:"earned"`
	StartedAt    string          `db:"started_at"`
	CompletedAt  string          `db:"completed_at"`
}

type DailyStatStorageEntry struct {
	UserID string          `db:"user_id"`
	Day    string          `db:"day"`
	Count  int             `db:"count"`
	Earned decimal.Decimal `db:"earned"`
}

type DraftStorageEntry struct {
	UserID    string `db:"user_id"`
	ProductID string `db:"product_id"`
	Stage     int    `db:"stage"`
	Answers   string `db:"answers"`
	UpdatedAt string `db:"updated_at"`
}

type PayoutMethodStorageEntry struct {
	UserID    string `db:"user_id"`
	Method    string `db:"method"`
	Details   string `db:"details"`
	UpdatedAt string `db:"updated_at"`
}

type WithdrawalStorageEntry struct {
	ID           uint            `db:"id"`
	WithdrawalID string          `db:"withdrawal_id"`
	UserID       string          `db:"user_id"`
	Amount       decimal.Decimal `db:"amount"`
	Status       string          `db:"status"`
	CreatedAt    string          `db:"created_at"`
	ProcessedAt  string          `db:"processed_at"`
}

type StateStorageEntry struct {
	UserID    string `db:"user_id"`
	StateKey  string `db:"state_key"`
	Snapshot  string `db:"snapshot"`
	UpdatedAt string `db:"updated_at"`
}
