// Package inpsql provides PSQL-backed storage functionality.
package inpsql

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/osseasofertas/review-platform/internal/catalog"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/models/modelqueue"
	"github.com/osseasofertas/review-platform/internal/models/modelstate"
	"github.com/osseasofertas/review-platform/internal/models/modelstorage"
	storageErrors "github.com/osseasofertas/review-platform/internal/storage/v1/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Storage struct {
	mu       sync.Mutex
	Cfg      *config.StorageConfig
	DB       *sql.DB
	log      *zerolog.Logger
	QueueIn  chan modelqueue.PayoutQueueEntry
	QueueOut chan modelqueue.PayoutQueueEntry
}

// InitStorage establishes a PSQL connection, bootstraps the schema, seeds
// the content catalog and starts the payout status listener.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger, wg *sync.WaitGroup) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	st := Storage{
		Cfg:      cfg,
		DB:       db,
		log:      log,
		QueueIn:  make(chan modelqueue.PayoutQueueEntry, 1000),
		QueueOut: make(chan modelqueue.PayoutQueueEntry, 1000),
	}
	err = st.createTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	err = st.seedCatalog(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				err := st.DB.Close()
				if err != nil {
					st.log.Error().Err(err).Msg("could not close DB connection")
				}
				st.log.Info().Msg("PSQL DB connection was closed")
				return
			case entry, ok := <-st.QueueOut:
				// the broker closes the out-queue after its workers exit
				if !ok {
					continue
				}
				st.updateWithdrawal(entry)
			}
		}
	}()
	log.Info().Msg("PSQL DB connection was established")
	return &st, nil
}

// AddNewUser stores a new user entry, failing when the email is taken.
func (s *Storage) AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry) error {
	newUserStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO users (user_id, name, email, password, registered_at, is_demo) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newUserStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newUserStmt.ExecContext(ctx, user.UserID, user.Name, user.Email, user.Password, user.RegisteredAt, user.Demo)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: user.Email}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new user failed for %s", user.UserID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new user failed for %s", user.UserID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new user done for %s", user.UserID))
		return nil
	}
}

// CheckUser authenticates a user by ciphered email and password.
func (s *Storage) CheckUser(ctx context.Context, email, password string) (modelstorage.UserStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, user_id, name, email, password, registered_at, is_demo FROM users WHERE email = $1")
	if err != nil {
		return modelstorage.UserStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.UserStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.UserStorageEntry
		err := selectStmt.QueryRowContext(ctx, email).Scan(&queryOutput.ID, &queryOutput.UserID, &queryOutput.Name, &queryOutput.Email, &queryOutput.Password, &queryOutput.RegisteredAt, &queryOutput.Demo)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			default:
				chanEr <- err
				return
			}
		}
		passwordHash := sha256.Sum256([]byte(password))
		expectedPasswordHash := sha256.Sum256([]byte(queryOutput.Password))
		passwordMatch := subtle.ConstantTimeCompare(passwordHash[:], expectedPasswordHash[:]) == 1
		if !passwordMatch {
			chanEr <- &storageErrors.NotFoundError{Err: nil}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("user authentication failed")
		return modelstorage.UserStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("user authentication failed")
		return modelstorage.UserStorageEntry{}, methodErr
	case user := <-chanOk:
		s.log.Info().Msg("user authentication done")
		return user, nil
	}
}

// GetUser retrieves one user entry by its identifier.
func (s *Storage) GetUser(ctx context.Context, userID string) (modelstorage.UserStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, user_id, name, email, password, registered_at, is_demo FROM users WHERE user_id = $1")
	if err != nil {
		return modelstorage.UserStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.UserStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.UserStorageEntry
		err := selectStmt.QueryRowContext(ctx, userID).Scan(&queryOutput.ID, &queryOutput.UserID, &queryOutput.Name, &queryOutput.Email, &queryOutput.Password, &queryOutput.RegisteredAt, &queryOutput.Demo)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			default:
				chanEr <- err
				return
			}
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("getting user failed for %s", userID))
		return modelstorage.UserStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("getting user failed for %s", userID))
		return modelstorage.UserStorageEntry{}, methodErr
	case user := <-chanOk:
		return user, nil
	}
}

// AddTransaction appends one ledger entry for a user.
func (s *Storage) AddTransaction(ctx context.Context, userID string, entry modelstate.LedgerEntry) error {
	newTxStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO transactions (tx_id, user_id, type, amount, description, created_at) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newTxStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newTxStmt.ExecContext(ctx, entry.ID, userID, entry.Type, entry.Amount, entry.Description, entry.CreatedAt.Format(time.RFC3339))
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: entry.ID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding transaction failed for %s", userID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding transaction failed for %s", userID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding transaction done for %s", userID))
		return nil
	}
}

// GetTransactions retrieves a user's ledger, most recent first.
func (s *Storage) GetTransactions(ctx context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, tx_id, user_id, type, amount, description, created_at FROM transactions WHERE user_id = $1 ORDER BY created_at DESC")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.TransactionStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx, userID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.TransactionStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.TransactionStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.TxID, &queryOutputRow.UserID, &queryOutputRow.Type, &queryOutputRow.Amount, &queryOutputRow.Description, &queryOutputRow.CreatedAt)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		err = rows.Err()
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting transactions failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting transactions failed")
		return nil, methodErr
	case transactions := <-chanOk:
		return transactions, nil
	}
}

// GetBalance derives the spendable balance by summing the user's ledger.
func (s *Storage) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1")
	if err != nil {
		return decimal.Zero, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan decimal.Decimal)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var amount decimal.Decimal
		err := selectStmt.QueryRowContext(ctx, userID).Scan(&amount)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- amount
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting current balance failed")
		return decimal.Zero, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting current balance failed")
		return decimal.Zero, methodErr
	case amount := <-chanOk:
		return amount, nil
	}
}

// AddEvaluation stores a completed evaluation record.
func (s *Storage) AddEvaluation(ctx context.Context, userID string, record modelstate.EvaluationRecord) error {
	newEvalStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO evaluations (evaluation_id, user_id, product_id, stage, completed, earned, started_at, completed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newEvalStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row := modelstorage.EvaluationStorageEntry{
			EvaluationID: record.ID,
			UserID:       userID,
			ProductID:    record.ProductID,
			Stage:        record.Stage,
			Completed:    record.Completed,
			Earned:       record.Earned,
			StartedAt:    record.StartedAt.Format(time.RFC3339),
		}
		if record.CompletedAt != nil {
			row.CompletedAt = record.CompletedAt.Format(time.RFC3339)
		}
		_, err := newEvalStmt.ExecContext(ctx, row.EvaluationID, row.UserID, row.ProductID, row.Stage, row.Completed, row.Earned, row.StartedAt, row.CompletedAt)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: row.EvaluationID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding evaluation failed for %s", userID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding evaluation failed for %s", userID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding evaluation done for %s", userID))
		return nil
	}
}

// UpsertDailyStat increments the calendar-day bucket for a user.
func (s *Storage) UpsertDailyStat(ctx context.Context, userID, day string, earned decimal.Decimal) error {
	upsertStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO daily_stats (user_id, day, count, earned) VALUES ($1, $2, 1, $3) ON CONFLICT (user_id, day) DO UPDATE SET count = daily_stats.count + 1, earned = daily_stats.earned + EXCLUDED.earned")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, userID, day, earned)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("upserting daily stats failed for %s", userID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("upserting daily stats failed for %s", userID))
		return methodErr
	case <-chanOk:
		return nil
	}
}

type statsQueryOutput struct {
	total  int
	today  int
	earned decimal.Decimal
}

// GetStats aggregates total and today's evaluation activity for a user.
func (s *Storage) GetStats(ctx context.Context, userID, today string) (int, int, decimal.Decimal, error) {
	totalStmt, err := s.DB.PrepareContext(ctx, "SELECT COUNT(*), COALESCE(SUM(earned), 0) FROM evaluations WHERE user_id = $1 AND completed")
	if err != nil {
		return 0, 0, decimal.Zero, &storageErrors.StatementPSQLError{Err: err}
	}
	defer totalStmt.Close()
	todayStmt, err := s.DB.PrepareContext(ctx, "SELECT COALESCE(SUM(count), 0) FROM daily_stats WHERE user_id = $1 AND day = $2")
	if err != nil {
		return 0, 0, decimal.Zero, &storageErrors.StatementPSQLError{Err: err}
	}
	defer todayStmt.Close()
	chanOk := make(chan statsQueryOutput)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var out statsQueryOutput
		err := totalStmt.QueryRowContext(ctx, userID).Scan(&out.total, &out.earned)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		err = todayStmt.QueryRowContext(ctx, userID, today).Scan(&out.today)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- out
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("getting stats failed for %s", userID))
		return 0, 0, decimal.Zero, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("getting stats failed for %s", userID))
		return 0, 0, decimal.Zero, methodErr
	case out := <-chanOk:
		return out.total, out.today, out.earned, nil
	}
}

// SaveDraft stores or replaces the partial progress of one evaluation.
func (s *Storage) SaveDraft(ctx context.Context, entry modelstorage.DraftStorageEntry) error {
	upsertStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO drafts (user_id, product_id, stage, answers, updated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, product_id) DO UPDATE SET stage = EXCLUDED.stage, answers = EXCLUDED.answers, updated_at = EXCLUDED.updated_at")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, entry.UserID, entry.ProductID, entry.Stage, entry.Answers, entry.UpdatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("saving draft failed for %s", entry.UserID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("saving draft failed for %s", entry.UserID))
		return methodErr
	case <-chanOk:
		return nil
	}
}

// GetDraft retrieves the saved partial progress for (user, product).
func (s *Storage) GetDraft(ctx context.Context, userID, productID string) (modelstorage.DraftStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT user_id, product_id, stage, answers, updated_at FROM drafts WHERE user_id = $1 AND product_id = $2")
	if err != nil {
		return modelstorage.DraftStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.DraftStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.DraftStorageEntry
		err := selectStmt.QueryRowContext(ctx, userID, productID).Scan(&queryOutput.UserID, &queryOutput.ProductID, &queryOutput.Stage, &queryOutput.Answers, &queryOutput.UpdatedAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			default:
				chanEr <- err
				return
			}
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting draft failed")
		return modelstorage.DraftStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting draft failed")
		return modelstorage.DraftStorageEntry{}, methodErr
	case draft := <-chanOk:
		return draft, nil
	}
}

// DeleteDraft removes the saved partial progress for (user, product).
func (s *Storage) DeleteDraft(ctx context.Context, userID, productID string) error {
	deleteStmt, err := s.DB.PrepareContext(ctx, "DELETE FROM drafts WHERE user_id = $1 AND product_id = $2")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer deleteStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := deleteStmt.ExecContext(ctx, userID, productID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("deleting draft failed")
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("deleting draft failed")
		return methodErr
	case <-chanOk:
		return nil
	}
}

// SavePayoutMethod stores or replaces the user's payout destination.
func (s *Storage) SavePayoutMethod(ctx context.Context, entry modelstorage.PayoutMethodStorageEntry) error {
	upsertStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO payout_methods (user_id, method, details, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id) DO UPDATE SET method = EXCLUDED.method, details = EXCLUDED.details, updated_at = EXCLUDED.updated_at")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, entry.UserID, entry.Method, entry.Details, entry.UpdatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("saving payout method failed for %s", entry.UserID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("saving payout method failed for %s", entry.UserID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("saving payout method done for %s", entry.UserID))
		return nil
	}
}

// GetPayoutMethod retrieves the user's payout destination.
func (s *Storage) GetPayoutMethod(ctx context.Context, userID string) (modelstorage.PayoutMethodStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT user_id, method, details, updated_at FROM payout_methods WHERE user_id = $1")
	if err != nil {
		return modelstorage.PayoutMethodStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.PayoutMethodStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.PayoutMethodStorageEntry
		err := selectStmt.QueryRowContext(ctx, userID).Scan(&queryOutput.UserID, &queryOutput.Method, &queryOutput.Details, &queryOutput.UpdatedAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			default:
				chanEr <- err
				return
			}
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting payout method failed")
		return modelstorage.PayoutMethodStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting payout method failed")
		return modelstorage.PayoutMethodStorageEntry{}, methodErr
	case method := <-chanOk:
		return method, nil
	}
}

// AddWithdrawal stores a pending withdrawal and enqueues it for dispatch.
func (s *Storage) AddWithdrawal(ctx context.Context, entry modelstorage.WithdrawalStorageEntry) error {
	newWithdrawalStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO withdrawals (withdrawal_id, user_id, amount, status, created_at, processed_at) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newWithdrawalStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newWithdrawalStmt.ExecContext(ctx, entry.WithdrawalID, entry.UserID, entry.Amount, entry.Status, entry.CreatedAt, entry.ProcessedAt)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: entry.WithdrawalID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding withdrawal failed for %s", entry.UserID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding withdrawal failed for %s", entry.UserID))
		return methodErr
	case <-chanOk:
		s.QueueIn <- modelqueue.PayoutQueueEntry{
			WithdrawalID: entry.WithdrawalID,
			UserID:       entry.UserID,
			Amount:       entry.Amount,
			Status:       modelqueue.StatusPending,
		}
		s.log.Info().Msg(fmt.Sprintf("adding withdrawal done for %s", entry.UserID))
		return nil
	}
}

// updateWithdrawal applies a terminal dispatch status reported by the broker.
func (s *Storage) updateWithdrawal(entry modelqueue.PayoutQueueEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx, "UPDATE withdrawals SET status = $1, processed_at = $2 WHERE withdrawal_id = $3", entry.Status, time.Now().Format(time.RFC3339), entry.WithdrawalID)
	if err != nil {
		s.log.Error().Err(err).Msg(fmt.Sprintf("updating withdrawal status failed for %s", entry.WithdrawalID))
		return
	}
	s.log.Info().Msg(fmt.Sprintf("withdrawal %s marked %s", entry.WithdrawalID, entry.Status))
}

// SaveState persists the whole state snapshot as a single blob under key.
func (s *Storage) SaveState(ctx context.Context, userID string, key string, snapshot *modelstate.Snapshot) error {
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	upsertStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO app_state (user_id, state_key, snapshot, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, state_key) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, userID, key, string(blob), time.Now().Format(time.RFC3339))
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("saving state failed for %s", userID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("saving state failed for %s", userID))
		return methodErr
	case <-chanOk:
		return nil
	}
}

// LoadState restores the persisted snapshot verbatim, with no migration.
func (s *Storage) LoadState(ctx context.Context, userID string, key string) (*modelstate.Snapshot, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT user_id, state_key, snapshot, updated_at FROM app_state WHERE user_id = $1 AND state_key = $2")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan *modelstate.Snapshot)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var row modelstorage.StateStorageEntry
		err := selectStmt.QueryRowContext(ctx, userID, key).Scan(&row.UserID, &row.StateKey, &row.Snapshot, &row.UpdatedAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			default:
				chanEr <- err
				return
			}
		}
		var snapshot modelstate.Snapshot
		err = json.Unmarshal([]byte(row.Snapshot), &snapshot)
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- &snapshot
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("loading state failed for %s", userID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("loading state failed for %s", userID))
		return nil, methodErr
	case snapshot := <-chanOk:
		return snapshot, nil
	}
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	query := `CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL   NOT NULL,
		user_id       TEXT        NOT NULL UNIQUE,
		name          TEXT        NOT NULL,
		email         TEXT        NOT NULL UNIQUE,
		password      TEXT        NOT NULL,
		registered_at TIMESTAMPTZ NOT NULL,
		is_demo       BOOLEAN     NOT NULL DEFAULT FALSE
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS products (
		product_id   TEXT           NOT NULL UNIQUE,
		kind         TEXT           NOT NULL,
		title        TEXT           NOT NULL,
		media_url    TEXT           NOT NULL,
		min_earning  NUMERIC(10, 2) NOT NULL,
		max_earning  NUMERIC(10, 2) NOT NULL,
		rotation_day INT            NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS transactions (
		id          BIGSERIAL      NOT NULL,
		tx_id       TEXT           NOT NULL UNIQUE,
		user_id     TEXT           NOT NULL,
		type        TEXT           NOT NULL,
		amount      NUMERIC(10, 2) NOT NULL,
		description TEXT           NOT NULL,
		created_at  TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS evaluations (
		id            BIGSERIAL      NOT NULL,
		evaluation_id TEXT           NOT NULL UNIQUE,
		user_id       TEXT           NOT NULL,
		product_id    TEXT           NOT NULL,
		stage         INT            NOT NULL,
		completed     BOOLEAN        NOT NULL,
		earned        NUMERIC(10, 2) NOT NULL,
		started_at    TIMESTAMPTZ    NOT NULL,
		completed_at  TEXT           NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS daily_stats (
		user_id TEXT           NOT NULL,
		day     TEXT           NOT NULL,
		count   INT            NOT NULL,
		earned  NUMERIC(10, 2) NOT NULL,
		UNIQUE (user_id, day)
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS drafts (
		user_id    TEXT        NOT NULL,
		product_id TEXT        NOT NULL,
		stage      INT         NOT NULL,
		answers    TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, product_id)
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS payout_methods (
		user_id    TEXT        NOT NULL UNIQUE,
		method     TEXT        NOT NULL,
		details    TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS withdrawals (
		id            BIGSERIAL      NOT NULL,
		withdrawal_id TEXT           NOT NULL UNIQUE,
		user_id       TEXT           NOT NULL,
		amount        NUMERIC(10, 2) NOT NULL,
		status        TEXT           NOT NULL,
		created_at    TIMESTAMPTZ    NOT NULL,
		processed_at  TEXT           NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS app_state (
		user_id    TEXT        NOT NULL,
		state_key  TEXT        NOT NULL,
		snapshot   TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, state_key)
	);`
	queries = append(queries, query)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return err
		}
	}
	return nil
}

// seedCatalog mirrors the static content pool into the products table so
// that evaluations reference known rows.
func (s *Storage) seedCatalog(ctx context.Context) error {
	const query = `INSERT INTO products (product_id, kind, title, media_url, min_earning, max_earning, rotation_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) DO UPDATE SET kind = EXCLUDED.kind, title = EXCLUDED.title, media_url = EXCLUDED.media_url,
		min_earning = EXCLUDED.min_earning, max_earning = EXCLUDED.max_earning, rotation_day = EXCLUDED.rotation_day`
	for _, item := range catalog.Pool() {
		_, err := s.DB.ExecContext(ctx, query, item.ID, string(item.Kind), item.Title, item.MediaURL, item.MinEarning, item.MaxEarning, item.Day)
		if err != nil {
			return err
		}
	}
	return nil
}
