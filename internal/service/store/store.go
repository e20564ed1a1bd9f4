// Package store implements the application state store: the aggregate root
// over the ledger, the evaluation lifecycle, content rotation and cooldown
// gates. The store holds one user session's state, mutates it only through
// its declared actions, and write-through persists the whole snapshot under
// a fixed storage key after every transition.
//
// The balance is never stored independently: it is always derived by
// summing the ledger.
package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/osseasofertas/review-platform/internal/catalog"
	"github.com/osseasofertas/review-platform/internal/models/modelstate"
	"github.com/osseasofertas/review-platform/internal/service/cooldown"
	"github.com/osseasofertas/review-platform/internal/service/rotation"
	storeErrors "github.com/osseasofertas/review-platform/internal/service/store/errors"
	"github.com/shopspring/decimal"
)

// MinFeedbackLength is the minimum trimmed length of video review feedback.
const MinFeedbackLength = 10

// Clock abstracts the wall clock so date-dependent transitions are
// deterministically testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Persister saves snapshots to durable storage. Every state transition
// results in exactly one Save call.
type Persister interface {
	SaveState(ctx context.Context, userID string, key string, snapshot *modelstate.Snapshot) error
}

// Rand yields the uniform draws behind earning amounts. One Rand is shared
// across the stores of concurrent requests, so implementations must be safe
// for concurrent use. A bare *rand.Rand is only acceptable in
// single-goroutine tests.
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// NewLockedRand returns a seeded Rand safe for concurrent stores.
func NewLockedRand(seed int64) Rand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// Config carries the injected dependencies and policy knobs of a store.
type Config struct {
	Clock        Clock
	Rand         Rand
	Persister    Persister
	WelcomeBonus decimal.Decimal
	CooldownDays int
}

// Store is the application state store for a single user session.
type Store struct {
	clock        Clock
	rnd          Rand
	persister    Persister
	welcomeBonus decimal.Decimal
	cooldownDays int
	userID       string
	state        *modelstate.Snapshot
}

// New initializes a store around a previously persisted snapshot, or around
// a fresh one when snapshot is nil. The snapshot is restored verbatim.
func New(cfg Config, userID string, snapshot *modelstate.Snapshot) (*Store, error) {
	if cfg.Clock == nil {
		return nil, &storeErrors.StoreFoundNilArgument{Msg: "nil clock was passed to store initializer"}
	}
	if userID == "" {
		return nil, &storeErrors.StoreFoundNilArgument{Msg: "empty user ID was passed to store initializer"}
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = NewLockedRand(time.Now().UnixNano())
	}
	if snapshot == nil {
		snapshot = modelstate.NewSnapshot()
	}
	if snapshot.DailyStats == nil {
		snapshot.DailyStats = make(map[string]modelstate.DailyStat)
	}
	cooldownDays := cfg.CooldownDays
	if cooldownDays == 0 {
		cooldownDays = cooldown.DefaultWindowDays
	}
	return &Store{
		clock:        cfg.Clock,
		rnd:          rnd,
		persister:    cfg.Persister,
		welcomeBonus: cfg.WelcomeBonus,
		cooldownDays: cooldownDays,
		userID:       userID,
		state:        snapshot,
	}, nil
}

// DateKey renders the calendar-day bucket key for a point in time.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Snapshot exposes the current state shape.
func (s *Store) Snapshot() *modelstate.Snapshot {
	return s.state
}

// User returns the session user, nil when none is set.
func (s *Store) User() *modelstate.SessionUser {
	return s.state.User
}

func (s *Store) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.SaveState(ctx, s.userID, modelstate.StorageKey, s.state)
}

// SetUser places a user into the store. The first time a user is set with
// an empty transaction history exactly one welcome bonus transaction is
// created, seeding the ledger so that the balance equals the bonus amount.
func (s *Store) SetUser(ctx context.Context, user modelstate.SessionUser) error {
	s.state.User = &user
	if len(s.state.Transactions) == 0 && s.welcomeBonus.IsPositive() {
		s.appendEntry(modelstate.TxWelcomeBonus, s.welcomeBonus, "Welcome bonus")
	}
	return s.persist(ctx)
}

// appendEntry prepends a ledger entry, keeping most-recent-first ordering.
func (s *Store) appendEntry(txType string, amount decimal.Decimal, description string) modelstate.LedgerEntry {
	entry := modelstate.LedgerEntry{
		ID:          uuid.New().String(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}
	s.state.Transactions = append([]modelstate.LedgerEntry{entry}, s.state.Transactions...)
	return entry
}

// AddTransaction appends a signed ledger entry and persists the snapshot.
func (s *Store) AddTransaction(ctx context.Context, txType string, amount decimal.Decimal, description string) (*modelstate.LedgerEntry, error) {
	if s.state.User == nil {
		return nil, &storeErrors.NoActiveUserError{}
	}
	entry := s.appendEntry(txType, amount, description)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Balance derives the spendable balance by summing all ledger entries.
func (s *Store) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range s.state.Transactions {
		total = total.Add(entry.Amount)
	}
	return total
}

// Transactions returns the ledger, most recent first.
func (s *Store) Transactions() []modelstate.LedgerEntry {
	out := make([]modelstate.LedgerEntry, len(s.state.Transactions))
	copy(out, s.state.Transactions)
	return out
}

// Catalog returns the content items presentable today for the session user.
func (s *Store) Catalog(pool []catalog.Item) []catalog.Item {
	var firstLogin time.Time
	if s.state.User != nil {
		firstLogin = s.state.User.RegisteredAt
	}
	return rotation.Rotate(pool, firstLogin, s.clock.Now())
}

// StartEvaluation opens a new evaluation for an item at stage 1, or resumes
// the one already in progress for the same item.
func (s *Store) StartEvaluation(ctx context.Context, item catalog.Item) (*modelstate.EvaluationRecord, error) {
	if s.state.User == nil {
		return nil, &storeErrors.NoActiveUserError{}
	}
	if cur := s.state.Current; cur != nil && !cur.Completed && cur.ProductID == item.ID {
		return cur, nil
	}
	record := &modelstate.EvaluationRecord{
		ID:        uuid.New().String(),
		ProductID: item.ID,
		Kind:      string(item.Kind),
		Stage:     1,
		StartedAt: s.clock.Now(),
	}
	s.state.Current = record
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// SubmitAnswer records a single-choice answer for the current photo
// evaluation stage and auto-advances to the next stage. Answering the last
// stage completes the evaluation.
func (s *Store) SubmitAnswer(ctx context.Context, item catalog.Item, answer modelstate.AnswerValue) (*modelstate.EvaluationRecord, error) {
	if s.state.User == nil {
		return nil, &storeErrors.NoActiveUserError{}
	}
	if item.Kind != catalog.KindPhoto {
		return nil, &storeErrors.ValidationError{Field: "answer", Msg: "choice answers apply to photo content only"}
	}
	cur := s.state.Current
	if cur == nil || cur.ProductID != item.ID {
		return nil, &storeErrors.NoActiveEvaluationError{ProductID: item.ID}
	}
	if cur.Completed {
		return nil, &storeErrors.EvaluationCompletedError{ID: cur.ID}
	}
	if answer.Kind != modelstate.AnswerChoice {
		return nil, &storeErrors.ValidationError{Field: "answer", Msg: "a single-choice answer is required"}
	}
	question, ok := catalog.QuestionByStage(cur.Stage)
	if !ok {
		return nil, &storeErrors.ValidationError{Field: "answer", Msg: "no question remains for this evaluation"}
	}
	if !containsOption(question.Options, answer.Choice) {
		return nil, &storeErrors.ValidationError{Field: "answer", Msg: "answer is not one of the allowed options"}
	}
	cur.Answers = append(cur.Answers, answer)
	if len(cur.Answers) == len(catalog.PhotoQuestions) {
		return s.finalize(ctx, item)
	}
	cur.Stage++
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return cur, nil
}

// SubmitReview completes a video evaluation from a star rating and free-text
// feedback. Each violated precondition yields a distinct validation error
// and leaves the state untouched.
func (s *Store) SubmitReview(ctx context.Context, item catalog.Item, rating int, feedback string) (*modelstate.EvaluationRecord, error) {
	if s.state.User == nil {
		return nil, &storeErrors.NoActiveUserError{}
	}
	if item.Kind != catalog.KindVideo {
		return nil, &storeErrors.ValidationError{Field: "rating", Msg: "star reviews apply to video content only"}
	}
	if rating < 1 || rating > 5 {
		return nil, &storeErrors.ValidationError{Field: "rating", Msg: "rating must be an integer between 1 and 5"}
	}
	if len(strings.TrimSpace(feedback)) < MinFeedbackLength {
		return nil, &storeErrors.ValidationError{Field: "feedback", Msg: "feedback must contain at least 10 characters"}
	}
	cur := s.state.Current
	if cur == nil || cur.ProductID != item.ID || cur.Completed {
		cur = &modelstate.EvaluationRecord{
			ID:        uuid.New().String(),
			ProductID: item.ID,
			Kind:      string(item.Kind),
			Stage:     1,
			StartedAt: s.clock.Now(),
		}
		s.state.Current = cur
	}
	cur.Answers = append(cur.Answers,
		modelstate.AnswerValue{Kind: modelstate.AnswerRating, Rating: rating},
		modelstate.AnswerValue{Kind: modelstate.AnswerText, Text: feedback},
	)
	return s.finalize(ctx, item)
}

// finalize performs the one-shot completion transition: earning computation,
// evaluation record, ledger entry, daily stats and counters, followed by a
// single snapshot persist.
func (s *Store) finalize(ctx context.Context, item catalog.Item) (*modelstate.EvaluationRecord, error) {
	cur := s.state.Current
	if cur == nil {
		return nil, &storeErrors.NoActiveEvaluationError{ProductID: item.ID}
	}
	if cur.Completed {
		return nil, &storeErrors.EvaluationCompletedError{ID: cur.ID}
	}
	now := s.clock.Now()
	earning := s.computeEarning(item)
	cur.Completed = true
	cur.Earned = earning
	cur.CompletedAt = &now
	s.state.CompletedEvaluations = append(s.state.CompletedEvaluations, *cur)
	s.appendEntry(modelstate.TxEvaluationEarning, earning, "Evaluation earning: "+item.Title)
	key := DateKey(now)
	bucket := s.state.DailyStats[key]
	bucket.Count++
	bucket.Earned = bucket.Earned.Add(earning)
	s.state.DailyStats[key] = bucket
	s.state.TotalEvaluations++
	s.state.Current = nil
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	completed := s.state.CompletedEvaluations[len(s.state.CompletedEvaluations)-1]
	return &completed, nil
}

// computeEarning draws a fresh earning within the item's declared bounds,
// rounded to 2 decimal places. Rounding may nudge the value past a bound,
// hence the clamp.
func (s *Store) computeEarning(item catalog.Item) decimal.Decimal {
	span := item.MaxEarning.Sub(item.MinEarning)
	r := decimal.NewFromFloat(s.rnd.Float64())
	earning := item.MinEarning.Add(span.Mul(r)).Round(2)
	if earning.LessThan(item.MinEarning) {
		return item.MinEarning
	}
	if earning.GreaterThan(item.MaxEarning) {
		return item.MaxEarning
	}
	return earning
}

// TodayEvaluations reads today's day-bucketed evaluation count.
func (s *Store) TodayEvaluations() int {
	return s.state.DailyStats[DateKey(s.clock.Now())].Count
}

// TotalEvaluationsCount returns the running evaluation counter.
func (s *Store) TotalEvaluationsCount() int {
	return s.state.TotalEvaluations
}

// TotalEarned sums earnings across all daily buckets.
func (s *Store) TotalEarned() decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range s.state.DailyStats {
		total = total.Add(bucket.Earned)
	}
	return total
}

// Withdraw appends a negative withdrawal entry after checking the
// registration-keyed cooldown and the available balance.
func (s *Store) Withdraw(ctx context.Context, amount decimal.Decimal) (*modelstate.LedgerEntry, error) {
	if s.state.User == nil {
		return nil, &storeErrors.NoActiveUserError{}
	}
	if !amount.IsPositive() {
		return nil, &storeErrors.ValidationError{Field: "amount", Msg: "withdrawal amount must be positive"}
	}
	if daysLeft := s.DaysUntilWithdrawalAllowed(); daysLeft > 0 {
		return nil, &storeErrors.CooldownActiveError{DaysLeft: daysLeft}
	}
	balance := s.Balance()
	if balance.LessThan(amount) {
		return nil, &storeErrors.InsufficientFundsError{Available: balance.StringFixed(2), Requested: amount.StringFixed(2)}
	}
	entry := s.appendEntry(modelstate.TxWithdrawal, amount.Neg(), "Withdrawal request")
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CanWithdraw reports whether the registration-keyed cooldown has elapsed.
func (s *Store) CanWithdraw() bool {
	return s.DaysUntilWithdrawalAllowed() == 0
}

// DaysUntilWithdrawalAllowed returns whole days left in the withdrawal
// eligibility window counted from registration.
func (s *Store) DaysUntilWithdrawalAllowed() int {
	if s.state.User == nil {
		return s.cooldownDays
	}
	registeredAt := s.state.User.RegisteredAt
	return cooldown.DaysUntilAllowed(&registeredAt, s.clock.Now(), s.cooldownDays)
}

// IsLoginBlocked reports whether the post-logout lockout window is active.
func (s *Store) IsLoginBlocked() bool {
	return cooldown.IsBlocked(s.state.LastLogoutAt, s.clock.Now(), s.cooldownDays)
}

// DaysUntilLoginAllowed returns whole days left in the login lockout window.
func (s *Store) DaysUntilLoginAllowed() int {
	return cooldown.DaysUntilAllowed(s.state.LastLogoutAt, s.clock.Now(), s.cooldownDays)
}

// Logout destroys all session-scoped state and stamps the lockout timestamp.
// The transition is irreversible; only the lockout stamp survives it.
func (s *Store) Logout(ctx context.Context) error {
	now := s.clock.Now()
	fresh := modelstate.NewSnapshot()
	fresh.LastLogoutAt = &now
	s.state = fresh
	return s.persist(ctx)
}

func containsOption(options []string, choice string) bool {
	for _, option := range options {
		if option == choice {
			return true
		}
	}
	return false
}
