// Package processor provides intermediary layer functionality between the DB and API endpoint handlers.

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/google/uuid"
	"github.com/osseasofertas/review-platform/internal/catalog"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/models/modeldto"
	"github.com/osseasofertas/review-platform/internal/models/modelstate"
	"github.com/osseasofertas/review-platform/internal/models/modelstorage"
	serviceErrors "github.com/osseasofertas/review-platform/internal/service/processor/v1/errors"
	"github.com/osseasofertas/review-platform/internal/service/rotation"
	"github.com/osseasofertas/review-platform/internal/service/secretary/v1"
	"github.com/osseasofertas/review-platform/internal/service/store"
	storeErrors "github.com/osseasofertas/review-platform/internal/service/store/errors"
	"github.com/osseasofertas/review-platform/internal/storage/v1"
	storageErrors "github.com/osseasofertas/review-platform/internal/storage/v1/errors"
	"github.com/shopspring/decimal"
)

// Allowed payout methods.
const (
	MethodPayPal      = "PayPal"
	MethodBankDeposit = "Bank deposit"
)

// Processor defines attributes of a struct available to its methods.
type Processor struct {
	storage      storage.Storage
	secretary    secretary.Secretary
	clock        store.Clock
	rnd          store.Rand
	policy       *config.PolicyConfig
	welcomeBonus decimal.Decimal
}

// InitService initializes an intermediary service for data processing.
func InitService(st storage.Storage, sec secretary.Secretary, clock store.Clock, policy *config.PolicyConfig) (*Processor, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if sec == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil secretary was passed to service initializer"}
	}
	if policy == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil policy config was passed to service initializer"}
	}
	if clock == nil {
		clock = store.SystemClock()
	}
	welcomeBonus, err := decimal.NewFromString(policy.WelcomeBonus)
	if err != nil {
		return nil, &serviceErrors.ServiceIllegalAmount{Msg: fmt.Sprintf("illegal welcome bonus amount %s", policy.WelcomeBonus)}
	}
	processor := &Processor{
		storage:      st,
		secretary:    sec,
		clock:        clock,
		rnd:          store.NewLockedRand(time.Now().UnixNano()),
		policy:       policy,
		welcomeBonus: welcomeBonus,
	}
	return processor, nil
}

// GetUserID retrieves deciphered user identifier from token.
func (proc *Processor) GetUserID(accessToken string) (string, error) {
	return proc.secretary.ValidateToken(accessToken)
}

// loadStore restores the persisted state snapshot of a user into a store,
// starting from a fresh snapshot when none was ever persisted.
func (proc *Processor) loadStore(ctx context.Context, userID string) (*store.Store, error) {
	snapshot, err := proc.storage.LoadState(ctx, userID, modelstate.StorageKey)
	if err != nil {
		var notFoundError *storageErrors.NotFoundError
		if !errors.As(err, &notFoundError) {
			return nil, err
		}
		snapshot = nil
	}
	return store.New(store.Config{
		Clock:        proc.clock,
		Rand:         proc.rnd,
		Persister:    proc.storage,
		WelcomeBonus: proc.welcomeBonus,
		CooldownDays: proc.policy.CooldownDays,
	}, userID, snapshot)
}

// mirrorNewEntries copies ledger entries prepended since before into the
// relational transactions table, oldest first.
func (proc *Processor) mirrorNewEntries(ctx context.Context, userID string, st *store.Store, before int) error {
	entries := st.Transactions()
	added := len(entries) - before
	for i := added - 1; i >= 0; i-- {
		if err := proc.storage.AddTransaction(ctx, userID, entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// RegisterUser processes user register requests.
func (proc *Processor) RegisterUser(ctx context.Context, credentials modeldto.Credentials) (*modeldto.AuthResponse, error) {
	accessToken, refreshToken, userID, err := proc.secretary.NewToken()
	if err != nil {
		return nil, err
	}
	now := proc.clock.Now()
	err = proc.storage.AddNewUser(ctx, modelstorage.UserStorageEntry{
		UserID:       userID,
		Name:         credentials.Name,
		Email:        proc.secretary.Encode(credentials.Email),
		Password:     proc.secretary.Encode(credentials.Password),
		RegisteredAt: now.Format(time.RFC3339),
		Demo:         false,
	})
	if err != nil {
		return nil, err
	}
	st, err := proc.loadStore(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = st.SetUser(ctx, modelstate.SessionUser{ID: userID, Name: credentials.Name, Email: credentials.Email, RegisteredAt: now})
	if err != nil {
		return nil, err
	}
	if err = proc.mirrorNewEntries(ctx, userID, st, 0); err != nil {
		return nil, err
	}
	return &modeldto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: modeldto.User{
			ID:           userID,
			Name:         credentials.Name,
			Email:        credentials.Email,
			Balance:      st.Balance().StringFixed(2),
			RegisteredAt: now.Format(time.RFC3339),
		},
	}, nil
}

// LoginUser processes user login requests, enforcing the post-logout lockout.
func (proc *Processor) LoginUser(ctx context.Context, credentials modeldto.Credentials) (*modeldto.AuthResponse, error) {
	entry, err := proc.storage.CheckUser(ctx, proc.secretary.Encode(credentials.Email), proc.secretary.Encode(credentials.Password))
	if err != nil {
		return nil, err
	}
	st, err := proc.loadStore(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if st.IsLoginBlocked() {
		return nil, &serviceErrors.ServiceLoginLocked{DaysLeft: st.DaysUntilLoginAllowed()}
	}
	if st.User() == nil {
		registeredAt, parseErr := time.Parse(time.RFC3339, entry.RegisteredAt)
		if parseErr != nil {
			registeredAt = proc.clock.Now()
		}
		before := len(st.Transactions())
		err = st.SetUser(ctx, modelstate.SessionUser{ID: entry.UserID, Name: entry.Name, Email: credentials.Email, RegisteredAt: registeredAt, Demo: entry.Demo})
		if err != nil {
			return nil, err
		}
		if err = proc.mirrorNewEntries(ctx, entry.UserID, st, before); err != nil {
			return nil, err
		}
	}
	accessToken, err := proc.secretary.GetTokenForUser(entry.UserID)
	if err != nil {
		return nil, err
	}
	return &modeldto.AuthResponse{
		AccessToken: accessToken,
		User: modeldto.User{
			ID:           entry.UserID,
			Name:         entry.Name,
			Email:        credentials.Email,
			Balance:      st.Balance().StringFixed(2),
			RegisteredAt: entry.RegisteredAt,
			Demo:         entry.Demo,
		},
	}, nil
}

// DemoUser creates a throwaway demo account with a seeded ledger.
func (proc *Processor) DemoUser(ctx context.Context) (*modeldto.AuthResponse, error) {
	accessToken, _, userID, err := proc.secretary.NewToken()
	if err != nil {
		return nil, err
	}
	now := proc.clock.Now()
	email := "demo-" + userID + "@review-platform.app"
	err = proc.storage.AddNewUser(ctx, modelstorage.UserStorageEntry{
		UserID:       userID,
		Name:         "Demo User",
		Email:        proc.secretary.Encode(email),
		Password:     proc.secretary.Encode(uuid.New().String()),
		RegisteredAt: now.Format(time.RFC3339),
		Demo:         true,
	})
	if err != nil {
		return nil, err
	}
	st, err := proc.loadStore(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = st.SetUser(ctx, modelstate.SessionUser{ID: userID, Name: "Demo User", Email: email, RegisteredAt: now, Demo: true})
	if err != nil {
		return nil, err
	}
	if err = proc.mirrorNewEntries(ctx, userID, st, 0); err != nil {
		return nil, err
	}
	return &modeldto.AuthResponse{
		AccessToken: accessToken,
		User: modeldto.User{
			ID:           userID,
			Name:         "Demo User",
			Email:        email,
			Balance:      st.Balance().StringFixed(2),
			RegisteredAt: now.Format(time.RFC3339),
			Demo:         true,
		},
	}, nil
}

// LogoutUser destroys the session state and stamps the login lockout.
func (proc *Processor) LogoutUser(ctx context.Context, userID string) error {
	st, err := proc.loadStore(ctx, userID)
	if err != nil {
		return err
	}
	return st.Logout(ctx)
}

// GetProducts returns today's rotated catalog slice, rejecting the request
// once the daily evaluation cap is reached.
func (proc *Processor) GetProducts(ctx context.Context, userID string) ([]modeldto.Product, error) {
	today := store.DateKey(proc.clock.Now())
	_, todayCount, _, err := proc.storage.GetStats(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if todayCount >= proc.policy.DailyEvaluationLimit {
		return nil, &serviceErrors.ServiceDailyLimitReached{Count: todayCount, Limit: proc.policy.DailyEvaluationLimit}
	}
	entry, err := proc.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	firstLogin, err := time.Parse(time.RFC3339, entry.RegisteredAt)
	if err != nil {
		firstLogin = time.Time{}
	}
	items := rotation.Rotate(catalog.Pool(), firstLogin, proc.clock.Now())
	products := make([]modeldto.Product, 0, len(items))
	for _, item := range items {
		products = append(products, modeldto.Product{
			ID:         item.ID,
			Kind:       string(item.Kind),
			Title:      item.Title,
			MediaURL:   item.MediaURL,
			MinEarning: item.MinEarning.StringFixed(2),
			MaxEarning: item.MaxEarning.StringFixed(2),
		})
	}
	return products, nil
}

// GetUser returns a user profile with the ledger-derived balance.
func (proc *Processor) GetUser(ctx context.Context, userID string) (*modeldto.User, error) {
	entry, err := proc.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := proc.storage.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	email, err := proc.secretary.Decode(entry.Email)
	if err != nil {
		return nil, err
	}
	return &modeldto.User{
		ID:           entry.UserID,
		Name:         entry.Name,
		Email:        email,
		Balance:      balance.StringFixed(2),
		RegisteredAt: entry.RegisteredAt,
		Demo:         entry.Demo,
	}, nil
}

// GetStats returns total and day-bucketed evaluation counters.
func (proc *Processor) GetStats(ctx context.Context, userID string) (*modeldto.Stats, error) {
	today := store.DateKey(proc.clock.Now())
	total, todayCount, earned, err := proc.storage.GetStats(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &modeldto.Stats{
		TotalEvaluations: total,
		TodayEvaluations: todayCount,
		TotalEarned:      earned.StringFixed(2),
	}, nil
}

// GetTransactions returns the ledger, most recent first.
func (proc *Processor) GetTransactions(ctx context.Context, userID string) ([]modeldto.Transaction, error) {
	entries, err := proc.storage.GetTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var transactions []modeldto.Transaction
	for _, entry := range entries {
		transactions = append(transactions, modeldto.Transaction{
			ID:          entry.TxID,
			Type:        entry.Type,
			Amount:      entry.Amount.StringFixed(2),
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return transactions, nil
}

// AddEvaluation runs a submission through the staged evaluation lifecycle
// and records the completion effects.
func (proc *Processor) AddEvaluation(ctx context.Context, newEvaluation modeldto.NewEvaluation) (*modeldto.EvaluationResult, error) {
	item, ok := catalog.ItemByID(newEvaluation.ProductID)
	if !ok {
		return nil, &serviceErrors.ServiceUnknownProduct{ID: newEvaluation.ProductID}
	}
	today := store.DateKey(proc.clock.Now())
	_, todayCount, _, err := proc.storage.GetStats(ctx, newEvaluation.UserID, today)
	if err != nil {
		return nil, err
	}
	if todayCount >= proc.policy.DailyEvaluationLimit {
		return nil, &serviceErrors.ServiceDailyLimitReached{Count: todayCount, Limit: proc.policy.DailyEvaluationLimit}
	}
	st, err := proc.loadStore(ctx, newEvaluation.UserID)
	if err != nil {
		return nil, err
	}
	if st.User() == nil {
		entry, getErr := proc.storage.GetUser(ctx, newEvaluation.UserID)
		if getErr != nil {
			return nil, getErr
		}
		registeredAt, parseErr := time.Parse(time.RFC3339, entry.RegisteredAt)
		if parseErr != nil {
			registeredAt = proc.clock.Now()
		}
		before := len(st.Transactions())
		if err = st.SetUser(ctx, modelstate.SessionUser{ID: entry.UserID, Name: entry.Name, RegisteredAt: registeredAt, Demo: entry.Demo}); err != nil {
			return nil, err
		}
		if err = proc.mirrorNewEntries(ctx, newEvaluation.UserID, st, before); err != nil {
			return nil, err
		}
	}
	before := len(st.Transactions())
	record, err := proc.runLifecycle(ctx, st, item, newEvaluation.Answers)
	if err != nil {
		return nil, err
	}
	if err = proc.storage.AddEvaluation(ctx, newEvaluation.UserID, *record); err != nil {
		return nil, err
	}
	if err = proc.mirrorNewEntries(ctx, newEvaluation.UserID, st, before); err != nil {
		return nil, err
	}
	if err = proc.storage.UpsertDailyStat(ctx, newEvaluation.UserID, today, record.Earned); err != nil {
		return nil, err
	}
	// a completed evaluation invalidates any saved draft
	if err = proc.storage.DeleteDraft(ctx, newEvaluation.UserID, newEvaluation.ProductID); err != nil {
		return nil, err
	}
	return &modeldto.EvaluationResult{Earning: record.Earned.StringFixed(2)}, nil
}

// runLifecycle feeds the submitted answers through the store's staged
// transitions according to the item kind.
func (proc *Processor) runLifecycle(ctx context.Context, st *store.Store, item catalog.Item, answers []modeldto.Answer) (*modelstate.EvaluationRecord, error) {
	switch item.Kind {
	case catalog.KindVideo:
		var rating int
		var feedback string
		for _, answer := range answers {
			switch answer.Type {
			case modelstate.AnswerRating:
				rating = answer.Rating
			case modelstate.AnswerText:
				feedback = answer.Text
			}
		}
		return st.SubmitReview(ctx, item, rating, feedback)
	case catalog.KindPhoto:
		if _, err := st.StartEvaluation(ctx, item); err != nil {
			return nil, err
		}
		var record *modelstate.EvaluationRecord
		for _, answer := range answers {
			var err error
			record, err = st.SubmitAnswer(ctx, item, modelstate.AnswerValue{Kind: answer.Type, Choice: answer.Choice})
			if err != nil {
				return nil, err
			}
		}
		if record == nil || !record.Completed {
			return nil, &storeErrors.ValidationError{Field: "answers", Msg: "all three questions must be answered"}
		}
		return record, nil
	default:
		return nil, &serviceErrors.ServiceUnknownProduct{ID: item.ID}
	}
}

// SaveDraft stores partial evaluation progress for later resumption.
func (proc *Processor) SaveDraft(ctx context.Context, draft modeldto.Draft) error {
	if _, ok := catalog.ItemByID(draft.ProductID); !ok {
		return &serviceErrors.ServiceUnknownProduct{ID: draft.ProductID}
	}
	answers, err := json.Marshal(draft.Answers)
	if err != nil {
		return err
	}
	return proc.storage.SaveDraft(ctx, modelstorage.DraftStorageEntry{
		UserID:    draft.UserID,
		ProductID: draft.ProductID,
		Stage:     draft.Stage,
		Answers:   string(answers),
		UpdatedAt: proc.clock.Now().Format(time.RFC3339),
	})
}

// GetDraft retrieves saved partial evaluation progress.
func (proc *Processor) GetDraft(ctx context.Context, userID, productID string) (*modeldto.Draft, error) {
	entry, err := proc.storage.GetDraft(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	var answers []modeldto.Answer
	if err = json.Unmarshal([]byte(entry.Answers), &answers); err != nil {
		return nil, err
	}
	return &modeldto.Draft{
		UserID:    entry.UserID,
		ProductID: entry.ProductID,
		Stage:     entry.Stage,
		Answers:   answers,
	}, nil
}

// DeleteDraft discards saved partial evaluation progress.
func (proc *Processor) DeleteDraft(ctx context.Context, userID, productID string) error {
	return proc.storage.DeleteDraft(ctx, userID, productID)
}

// SetPayoutMethod validates and stores the user's payout destination.
func (proc *Processor) SetPayoutMethod(ctx context.Context, method modeldto.NewPayoutMethod) error {
	switch method.Method {
	case MethodPayPal:
		if !strings.Contains(method.Details.Email, "@") {
			return &serviceErrors.ServiceIllegalPayoutMethod{Msg: "a valid PayPal email is required"}
		}
	case MethodBankDeposit:
		if method.Details.BankName == "" {
			return &serviceErrors.ServiceIllegalPayoutMethod{Msg: "a bank name is required"}
		}
		if err := goluhn.Validate(method.Details.AccountNumber); err != nil {
			return &serviceErrors.ServiceIllegalPayoutMethod{Msg: fmt.Sprintf("illegal account number %s", method.Details.AccountNumber)}
		}
	default:
		return &serviceErrors.ServiceIllegalPayoutMethod{Msg: fmt.Sprintf("unsupported payout method %s", method.Method)}
	}
	details, err := json.Marshal(method.Details)
	if err != nil {
		return err
	}
	return proc.storage.SavePayoutMethod(ctx, modelstorage.PayoutMethodStorageEntry{
		UserID:    method.UserID,
		Method:    method.Method,
		Details:   string(details),
		UpdatedAt: proc.clock.Now().Format(time.RFC3339),
	})
}

// AddWithdrawal checks eligibility, appends the negative ledger entry and
// queues the payout for dispatch.
func (proc *Processor) AddWithdrawal(ctx context.Context, withdrawal modeldto.NewWithdrawal) (*modeldto.Withdrawal, error) {
	amount, err := decimal.NewFromString(withdrawal.Amount)
	if err != nil {
		return nil, &serviceErrors.ServiceIllegalAmount{Msg: fmt.Sprintf("illegal withdrawal amount %s", withdrawal.Amount)}
	}
	if _, err = proc.storage.GetPayoutMethod(ctx, withdrawal.UserID); err != nil {
		var notFoundError *storageErrors.NotFoundError
		if errors.As(err, &notFoundError) {
			return nil, &serviceErrors.ServicePayoutMethodMissing{}
		}
		return nil, err
	}
	st, err := proc.loadStore(ctx, withdrawal.UserID)
	if err != nil {
		return nil, err
	}
	if st.User() == nil {
		entry, getErr := proc.storage.GetUser(ctx, withdrawal.UserID)
		if getErr != nil {
			return nil, getErr
		}
		registeredAt, parseErr := time.Parse(time.RFC3339, entry.RegisteredAt)
		if parseErr != nil {
			registeredAt = proc.clock.Now()
		}
		before := len(st.Transactions())
		if err = st.SetUser(ctx, modelstate.SessionUser{ID: entry.UserID, Name: entry.Name, RegisteredAt: registeredAt, Demo: entry.Demo}); err != nil {
			return nil, err
		}
		if err = proc.mirrorNewEntries(ctx, withdrawal.UserID, st, before); err != nil {
			return nil, err
		}
	}
	before := len(st.Transactions())
	if _, err = st.Withdraw(ctx, amount); err != nil {
		return nil, err
	}
	if err = proc.mirrorNewEntries(ctx, withdrawal.UserID, st, before); err != nil {
		return nil, err
	}
	now := proc.clock.Now()
	withdrawalID := uuid.New().String()
	err = proc.storage.AddWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		WithdrawalID: withdrawalID,
		UserID:       withdrawal.UserID,
		Amount:       amount,
		Status:       "PENDING",
		CreatedAt:    now.Format(time.RFC3339),
		ProcessedAt:  "",
	})
	if err != nil {
		return nil, err
	}
	return &modeldto.Withdrawal{
		ID:        withdrawalID,
		Amount:    amount.StringFixed(2),
		Status:    "PENDING",
		CreatedAt: now.Format(time.RFC3339),
	}, nil
}
