package storage

import (
	"context"

	"github.com/osseasofertas/review-platform/internal/models/modelstate"
	"github.com/osseasofertas/review-platform/internal/models/modelstorage"
	"github.com/shopspring/decimal"
)

type Register interface {
	AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry) error
	CheckUser(ctx context.Context, email, password string) (modelstorage.UserStorageEntry, error)
	GetUser(ctx context.Context, userID string) (modelstorage.UserStorageEntry, error)
}

type Ledger interface {
	AddTransaction(ctx context.Context, userID string, entry modelstate.LedgerEntry) error
	GetTransactions(ctx context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
}

type Evaluations interface {
	AddEvaluation(ctx context.Context, userID string, record modelstate.EvaluationRecord) error
	UpsertDailyStat(ctx context.Context, userID, day string, earned decimal.Decimal) error
	GetStats(ctx context.Context, userID, today string) (total int, todayCount int, earned decimal.Decimal, err error)
}

type Drafts interface {
	SaveDraft(ctx context.Context, entry modelstorage.DraftStorageEntry) error
	GetDraft(ctx context.Context, userID, productID string) (modelstorage.DraftStorageEntry, error)
	DeleteDraft(ctx context.Context, userID, productID string) error
}

type Payouts interface {
	SavePayoutMethod(ctx context.Context, entry modelstorage.PayoutMethodStorageEntry) error
	GetPayoutMethod(ctx context.Context, userID string) (modelstorage.PayoutMethodStorageEntry, error)
	AddWithdrawal(ctx context.Context, entry modelstorage.WithdrawalStorageEntry) error
}

type State interface {
	SaveState(ctx context.Context, userID string, key string, snapshot *modelstate.Snapshot) error
	LoadState(ctx context.Context, userID string, key string) (*modelstate.Snapshot, error)
}

type Storage interface {
	Register
	Ledger
	Evaluations
	Drafts
	Payouts
	State
}
