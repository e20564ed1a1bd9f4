package processor

import (
	"context"

	"github.com/osseasofertas/review-platform/internal/models/modeldto"
)

// Processor defines a set of methods for types implementing Processor.
type Processor interface {
	RegisterUser(ctx context.Context, credentials modeldto.Credentials) (*modeldto.AuthResponse, error)
	LoginUser(ctx context.Context, credentials modeldto.Credentials) (*modeldto.AuthResponse, error)
	DemoUser(ctx context.Context) (*modeldto.AuthResponse, error)
	LogoutUser(ctx context.Context, userID string) error
	GetUserID(accessToken string) (string, error)
	GetProducts(ctx context.Context, userID string) ([]modeldto.Product, error)
	GetUser(ctx context.Context, userID string) (*modeldto.User, error)
	GetStats(ctx context.Context, userID string) (*modeldto.Stats, error)
	GetTransactions(ctx context.Context, userID string) ([]modeldto.Transaction, error)
	AddEvaluation(ctx context.Context, newEvaluation modeldto.NewEvaluation) (*modeldto.EvaluationResult, error)
	SaveDraft(ctx context.Context, draft modeldto.Draft) error
	GetDraft(ctx context.Context, userID, productID string) (*modeldto.Draft, error)
	DeleteDraft(ctx context.Context, userID, productID string) error
	SetPayoutMethod(ctx context.Context, method modeldto.NewPayoutMethod) error
	AddWithdrawal(ctx context.Context, withdrawal modeldto.NewWithdrawal) (*modeldto.Withdrawal, error)
}
