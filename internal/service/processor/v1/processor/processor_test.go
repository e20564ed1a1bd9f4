package processor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/osseasofertas/review-platform/internal/catalog"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/models/modeldto"
	"github.com/osseasofertas/review-platform/internal/models/modelstate"
	"github.com/osseasofertas/review-platform/internal/models/modelstorage"
	serviceErrors "github.com/osseasofertas/review-platform/internal/service/processor/v1/errors"
	storeErrors "github.com/osseasofertas/review-platform/internal/service/store/errors"
	storageErrors "github.com/osseasofertas/review-platform/internal/storage/v1/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSecretary struct {
	tokens int
}

func (s *fakeSecretary) Encode(data string) string { return "enc:" + data }

func (s *fakeSecretary) Decode(msg string) (string, error) {
	return msg[len("enc:"):], nil
}

func (s *fakeSecretary) NewToken() (string, string, string, error) {
	s.tokens++
	userID := fmt.Sprintf("user-%d", s.tokens)
	return "access-" + userID, "refresh-" + userID, userID, nil
}

func (s *fakeSecretary) GetTokenForUser(userID string) (string, error) {
	return "access-" + userID, nil
}

func (s *fakeSecretary) ValidateToken(accessToken string) (string, error) {
	return accessToken[len("access-"):], nil
}

type fakeStorage struct {
	users         map[string]modelstorage.UserStorageEntry
	transactions  map[string][]modelstate.LedgerEntry
	evaluations   map[string][]modelstate.EvaluationRecord
	dailyStats    map[string]map[string]modelstorage.DailyStatStorageEntry
	drafts        map[string]modelstorage.DraftStorageEntry
	payoutMethods map[string]modelstorage.PayoutMethodStorageEntry
	withdrawals   []modelstorage.WithdrawalStorageEntry
	snapshots     map[string]*modelstate.Snapshot
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:         make(map[string]modelstorage.UserStorageEntry),
		transactions:  make(map[string][]modelstate.LedgerEntry),
		evaluations:   make(map[string][]modelstate.EvaluationRecord),
		dailyStats:    make(map[string]map[string]modelstorage.DailyStatStorageEntry),
		drafts:        make(map[string]modelstorage.DraftStorageEntry),
		payoutMethods: make(map[string]modelstorage.PayoutMethodStorageEntry),
		snapshots:     make(map[string]*modelstate.Snapshot),
	}
}

func (f *fakeStorage) AddNewUser(_ context.Context, user modelstorage.UserStorageEntry) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return &storageErrors.AlreadyExistsError{Err: nil, ID: user.Email}
		}
	}
	f.users[user.UserID] = user
	return nil
}

func (f *fakeStorage) CheckUser(_ context.Context, email, password string) (modelstorage.UserStorageEntry, error) {
	for _, user := range f.users {
		if user.Email == email && user.Password == password {
			return user, nil
		}
	}
	return modelstorage.UserStorageEntry{}, &storageErrors.NotFoundError{Err: nil}
}

func (f *fakeStorage) GetUser(_ context.Context, userID string) (modelstorage.UserStorageEntry, error) {
	user, ok := f.users[userID]
	if !ok {
		return modelstorage.UserStorageEntry{}, &storageErrors.NotFoundError{Err: nil}
	}
	return user, nil
}

func (f *fakeStorage) AddTransaction(_ context.Context, userID string, entry modelstate.LedgerEntry) error {
	f.transactions[userID] = append(f.transactions[userID], entry)
	return nil
}

func (f *fakeStorage) GetTransactions(_ context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error) {
	entries := f.transactions[userID]
	out := make([]modelstorage.TransactionStorageEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, modelstorage.TransactionStorageEntry{
			TxID:        entries[i].ID,
			UserID:      userID,
			Type:        entries[i].Type,
			Amount:      entries[i].Amount,
			Description: entries[i].Description,
			CreatedAt:   entries[i].CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (f *fakeStorage) GetBalance(_ context.Context, userID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, entry := range f.transactions[userID] {
		total = total.Add(entry.Amount)
	}
	return total, nil
}

func (f *fakeStorage) AddEvaluation(_ context.Context, userID string, record modelstate.EvaluationRecord) error {
	f.evaluations[userID] = append(f.evaluations[userID], record)
	return nil
}

func (f *fakeStorage) UpsertDailyStat(_ context.Context, userID, day string, earned decimal.Decimal) error {
	if f.dailyStats[userID] == nil {
		f.dailyStats[userID] = make(map[string]modelstorage.DailyStatStorageEntry)
	}
	stat := f.dailyStats[userID][day]
	stat.Count++
	stat.Earned = stat.Earned.Add(earned)
	f.dailyStats[userID][day] = stat
	return nil
}

func (f *fakeStorage) GetStats(_ context.Context, userID, today string) (int, int, decimal.Decimal, error) {
	total := len(f.evaluations[userID])
	earned := decimal.Zero
	for _, record := range f.evaluations[userID] {
		earned = earned.Add(record.Earned)
	}
	return total, f.dailyStats[userID][today].Count, earned, nil
}

func (f *fakeStorage) SaveDraft(_ context.Context, entry modelstorage.DraftStorageEntry) error {
	f.drafts[entry.UserID+"/"+entry.ProductID] = entry
	return nil
}

func (f *fakeStorage) GetDraft(_ context.Context, userID, productID string) (modelstorage.DraftStorageEntry, error) {
	entry, ok := f.drafts[userID+"/"+productID]
	if !ok {
		return modelstorage.DraftStorageEntry{}, &storageErrors.NotFoundError{Err: nil}
	}
	return entry, nil
}

func (f *fakeStorage) DeleteDraft(_ context.Context, userID, productID string) error {
	delete(f.drafts, userID+"/"+productID)
	return nil
}

func (f *fakeStorage) SavePayoutMethod(_ context.Context, entry modelstorage.PayoutMethodStorageEntry) error {
	f.payoutMethods[entry.UserID] = entry
	return nil
}

func (f *fakeStorage) GetPayoutMethod(_ context.Context, userID string) (modelstorage.PayoutMethodStorageEntry, error) {
	entry, ok := f.payoutMethods[userID]
	if !ok {
		return modelstorage.PayoutMethodStorageEntry{}, &storageErrors.NotFoundError{Err: nil}
	}
	return entry, nil
}

func (f *fakeStorage) AddWithdrawal(_ context.Context, entry modelstorage.WithdrawalStorageEntry) error {
	f.withdrawals = append(f.withdrawals, entry)
	return nil
}

func (f *fakeStorage) SaveState(_ context.Context, userID string, _ string, snapshot *modelstate.Snapshot) error {
	f.snapshots[userID] = snapshot
	return nil
}

func (f *fakeStorage) LoadState(_ context.Context, userID string, _ string) (*modelstate.Snapshot, error) {
	snapshot, ok := f.snapshots[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{Err: nil}
	}
	return snapshot, nil
}

func testPolicy() *config.PolicyConfig {
	return &config.PolicyConfig{
		DailyEvaluationLimit: 25,
		WelcomeBonus:         "50.00",
		CooldownDays:         7,
	}
}

func newTestProcessor(t *testing.T) (*Processor, *fakeStorage, *fakeClock) {
	t.Helper()
	st := newFakeStorage()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	proc, err := InitService(st, &fakeSecretary{}, clock, testPolicy())
	assert.NoError(t, err)
	return proc, st, clock
}

func registerTestUser(t *testing.T, proc *Processor) *modeldto.AuthResponse {
	t.Helper()
	response, err := proc.RegisterUser(context.Background(), modeldto.Credentials{
		Name:     "Jane",
		Email:    "jane@example.com",
		Password: "secret",
	})
	assert.NoError(t, err)
	return response
}

func videoAnswers(rating int, feedback string) []modeldto.Answer {
	return []modeldto.Answer{
		{Type: modelstate.AnswerRating, Rating: rating},
		{Type: modelstate.AnswerText, Text: feedback},
	}
}

func TestInitService(t *testing.T) {
	_, err := InitService(nil, &fakeSecretary{}, nil, testPolicy())
	assert.Error(t, err)
	_, err = InitService(newFakeStorage(), nil, nil, testPolicy())
	assert.Error(t, err)
	_, err = InitService(newFakeStorage(), &fakeSecretary{}, nil, nil)
	assert.Error(t, err)
	_, err = InitService(newFakeStorage(), &fakeSecretary{}, nil, &config.PolicyConfig{WelcomeBonus: "not a number"})
	assert.Error(t, err)
	_, err = InitService(newFakeStorage(), &fakeSecretary{}, nil, testPolicy())
	assert.NoError(t, err)
}

func TestRegisterUserSeedsWelcomeBonus(t *testing.T) {
	proc, st, _ := newTestProcessor(t)
	response := registerTestUser(t, proc)

	assert.NotEmpty(t, response.AccessToken)
	assert.Equal(t, "50.00", response.User.Balance)
	entries := st.transactions[response.User.ID]
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, modelstate.TxWelcomeBonus, entries[0].Type)
	assert.NotNil(t, st.snapshots[response.User.ID])
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registerTestUser(t, proc)
	_, err := proc.RegisterUser(context.Background(), modeldto.Credentials{
		Name:     "Jane Again",
		Email:    "jane@example.com",
		Password: "other",
	})
	var alreadyExists *storageErrors.AlreadyExistsError
	assert.ErrorAs(t, err, &alreadyExists)
}

func TestLoginUser(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)

	response, err := proc.LoginUser(context.Background(), modeldto.Credentials{
		Email:    "jane@example.com",
		Password: "secret",
	})
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, response.User.ID)
	assert.Equal(t, "50.00", response.User.Balance)

	var notFound *storageErrors.NotFoundError
	_, err = proc.LoginUser(context.Background(), modeldto.Credentials{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	assert.ErrorAs(t, err, &notFound)
}

func TestLoginLockoutAfterLogout(t *testing.T) {
	proc, _, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	assert.NoError(t, proc.LogoutUser(ctx, registered.User.ID))

	clock.now = clock.now.Add(3 * 24 * time.Hour)
	var locked *serviceErrors.ServiceLoginLocked
	_, err := proc.LoginUser(ctx, modeldto.Credentials{Email: "jane@example.com", Password: "secret"})
	assert.ErrorAs(t, err, &locked)
	assert.Equal(t, 4, locked.DaysLeft)

	// once the lockout window elapses the login succeeds again
	clock.now = clock.now.Add(4 * 24 * time.Hour)
	response, err := proc.LoginUser(ctx, modeldto.Credentials{Email: "jane@example.com", Password: "secret"})
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, response.User.ID)
}

func TestDemoUser(t *testing.T) {
	proc, st, _ := newTestProcessor(t)
	response, err := proc.DemoUser(context.Background())
	assert.NoError(t, err)
	assert.True(t, response.User.Demo)
	assert.Contains(t, response.User.Email, "@review-platform.app")
	assert.Equal(t, "50.00", response.User.Balance)
	assert.True(t, st.users[response.User.ID].Demo)
}

func TestGetProductsRotation(t *testing.T) {
	proc, _, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	day1, err := proc.GetProducts(ctx, registered.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, catalog.MaxPhotosPerDay+catalog.MaxVideosPerDay, len(day1))

	clock.now = clock.now.Add(24 * time.Hour)
	day2, err := proc.GetProducts(ctx, registered.User.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, day1[0].ID, day2[0].ID)
}

func TestGetProductsDailyLimit(t *testing.T) {
	proc, st, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	today := clock.now.Format("2006-01-02")
	for i := 0; i < testPolicy().DailyEvaluationLimit; i++ {
		assert.NoError(t, st.UpsertDailyStat(ctx, registered.User.ID, today, decimal.RequireFromString("3.00")))
	}

	var limitReached *serviceErrors.ServiceDailyLimitReached
	_, err := proc.GetProducts(ctx, registered.User.ID)
	assert.ErrorAs(t, err, &limitReached)
	assert.Equal(t, 25, limitReached.Count)
	assert.Equal(t, 25, limitReached.Limit)
}

func TestAddEvaluationUnknownProduct(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)

	var unknown *serviceErrors.ServiceUnknownProduct
	_, err := proc.AddEvaluation(context.Background(), modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "p-999",
		Answers:   videoAnswers(5, "does not matter here"),
	})
	assert.ErrorAs(t, err, &unknown)
}

func TestAddEvaluationVideo(t *testing.T) {
	proc, st, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	result, err := proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Answers:   videoAnswers(5, "a thorough and well shot walkthrough"),
	})
	assert.NoError(t, err)

	item, _ := catalog.ItemByID("v-101")
	earning := decimal.RequireFromString(result.Earning)
	assert.False(t, earning.LessThan(item.MinEarning))
	assert.False(t, earning.GreaterThan(item.MaxEarning))

	assert.Equal(t, 1, len(st.evaluations[registered.User.ID]))
	today := clock.now.Format("2006-01-02")
	assert.Equal(t, 1, st.dailyStats[registered.User.ID][today].Count)
	// welcome bonus plus the earning entry
	assert.Equal(t, 2, len(st.transactions[registered.User.ID]))
	assert.Equal(t, modelstate.TxEvaluationEarning, st.transactions[registered.User.ID][1].Type)
}

func TestAddEvaluationPhoto(t *testing.T) {
	proc, st, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	answers := []modeldto.Answer{
		{Type: modelstate.AnswerChoice, Choice: "Very appealing"},
		{Type: modelstate.AnswerChoice, Choice: "Good"},
		{Type: modelstate.AnswerChoice, Choice: "Definitely"},
	}
	result, err := proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "p-101",
		Answers:   answers,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Earning)
	assert.Equal(t, 1, len(st.evaluations[registered.User.ID]))
}

func TestAddEvaluationPhotoIncomplete(t *testing.T) {
	proc, st, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)

	var validationError *storeErrors.ValidationError
	_, err := proc.AddEvaluation(context.Background(), modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "p-101",
		Answers: []modeldto.Answer{
			{Type: modelstate.AnswerChoice, Choice: "Very appealing"},
		},
	})
	assert.ErrorAs(t, err, &validationError)
	assert.Equal(t, 0, len(st.evaluations[registered.User.ID]))
}

func TestAddEvaluationRemovesDraft(t *testing.T) {
	proc, st, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	err := proc.SaveDraft(ctx, modeldto.Draft{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Stage:     1,
		Answers:   videoAnswers(4, "draft feedback in progress"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(st.drafts))

	_, err = proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Answers:   videoAnswers(4, "final feedback on the walkthrough"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(st.drafts))
}

func TestAddEvaluationDailyLimit(t *testing.T) {
	proc, st, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	today := clock.now.Format("2006-01-02")
	for i := 0; i < testPolicy().DailyEvaluationLimit; i++ {
		assert.NoError(t, st.UpsertDailyStat(ctx, registered.User.ID, today, decimal.RequireFromString("3.00")))
	}

	var limitReached *serviceErrors.ServiceDailyLimitReached
	_, err := proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Answers:   videoAnswers(5, "one evaluation over the daily cap"),
	})
	assert.ErrorAs(t, err, &limitReached)
}

func TestDraftRoundTrip(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	draft := modeldto.Draft{
		UserID:    registered.User.ID,
		ProductID: "p-101",
		Stage:     2,
		Answers: []modeldto.Answer{
			{Type: modelstate.AnswerChoice, Choice: "Very appealing"},
		},
	}
	assert.NoError(t, proc.SaveDraft(ctx, draft))

	loaded, err := proc.GetDraft(ctx, registered.User.ID, "p-101")
	assert.NoError(t, err)
	assert.Equal(t, draft.Stage, loaded.Stage)
	assert.Equal(t, draft.Answers, loaded.Answers)

	assert.NoError(t, proc.DeleteDraft(ctx, registered.User.ID, "p-101"))
	var notFound *storageErrors.NotFoundError
	_, err = proc.GetDraft(ctx, registered.User.ID, "p-101")
	assert.ErrorAs(t, err, &notFound)
}

func TestSetPayoutMethodValidation(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	var illegal *serviceErrors.ServiceIllegalPayoutMethod
	err := proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodPayPal,
		Details: modeldto.PayoutDetails{Email: "not-an-email"},
	})
	assert.ErrorAs(t, err, &illegal)

	err = proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodBankDeposit,
		Details: modeldto.PayoutDetails{AccountNumber: "79927398713"},
	})
	assert.ErrorAs(t, err, &illegal)

	err = proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodBankDeposit,
		Details: modeldto.PayoutDetails{BankName: "First Bank", AccountNumber: "79927398712"},
	})
	assert.ErrorAs(t, err, &illegal)

	err = proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  "Bitcoin",
		Details: modeldto.PayoutDetails{},
	})
	assert.ErrorAs(t, err, &illegal)

	err = proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodPayPal,
		Details: modeldto.PayoutDetails{Email: "jane@example.com"},
	})
	assert.NoError(t, err)

	err = proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodBankDeposit,
		Details: modeldto.PayoutDetails{BankName: "First Bank", AccountNumber: "79927398713"},
	})
	assert.NoError(t, err)
}

func TestAddWithdrawalRequiresMethod(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)

	var missing *serviceErrors.ServicePayoutMethodMissing
	_, err := proc.AddWithdrawal(context.Background(), modeldto.NewWithdrawal{
		UserID: registered.User.ID,
		Amount: "10.00",
	})
	assert.ErrorAs(t, err, &missing)
}

func TestAddWithdrawalCooldown(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	assert.NoError(t, proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodPayPal,
		Details: modeldto.PayoutDetails{Email: "jane@example.com"},
	}))

	var cooldownActive *storeErrors.CooldownActiveError
	_, err := proc.AddWithdrawal(ctx, modeldto.NewWithdrawal{
		UserID: registered.User.ID,
		Amount: "10.00",
	})
	assert.ErrorAs(t, err, &cooldownActive)
	assert.Equal(t, 7, cooldownActive.DaysLeft)
}

func TestAddWithdrawal(t *testing.T) {
	proc, st, clock := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	assert.NoError(t, proc.SetPayoutMethod(ctx, modeldto.NewPayoutMethod{
		UserID:  registered.User.ID,
		Method:  MethodPayPal,
		Details: modeldto.PayoutDetails{Email: "jane@example.com"},
	}))

	clock.now = clock.now.Add(8 * 24 * time.Hour)

	var illegal *serviceErrors.ServiceIllegalAmount
	_, err := proc.AddWithdrawal(ctx, modeldto.NewWithdrawal{UserID: registered.User.ID, Amount: "ten"})
	assert.ErrorAs(t, err, &illegal)

	var notEnough *storeErrors.InsufficientFundsError
	_, err = proc.AddWithdrawal(ctx, modeldto.NewWithdrawal{UserID: registered.User.ID, Amount: "100.00"})
	assert.ErrorAs(t, err, &notEnough)

	withdrawal, err := proc.AddWithdrawal(ctx, modeldto.NewWithdrawal{UserID: registered.User.ID, Amount: "20.00"})
	assert.NoError(t, err)
	assert.Equal(t, "PENDING", withdrawal.Status)
	assert.Equal(t, "20.00", withdrawal.Amount)
	assert.Equal(t, 1, len(st.withdrawals))

	balance, err := st.GetBalance(ctx, registered.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, "30.00", balance.StringFixed(2))
}

func TestGetStats(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	_, err := proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Answers:   videoAnswers(5, "a thorough and well shot walkthrough"),
	})
	assert.NoError(t, err)

	stats, err := proc.GetStats(ctx, registered.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEvaluations)
	assert.Equal(t, 1, stats.TodayEvaluations)
	assert.NotEqual(t, "0.00", stats.TotalEarned)
}

func TestGetTransactionsOrder(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	registered := registerTestUser(t, proc)
	ctx := context.Background()

	_, err := proc.AddEvaluation(ctx, modeldto.NewEvaluation{
		UserID:    registered.User.ID,
		ProductID: "v-101",
		Answers:   videoAnswers(5, "a thorough and well shot walkthrough"),
	})
	assert.NoError(t, err)

	transactions, err := proc.GetTransactions(ctx, registered.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(transactions))
	assert.Equal(t, modelstate.TxEvaluationEarning, transactions[0].Type)
	assert.Equal(t, modelstate.TxWelcomeBonus, transactions[1].Type)
}
