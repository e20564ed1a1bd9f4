package broker

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/osseasofertas/review-platform/internal/api/rest/client"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/logger"
	"github.com/osseasofertas/review-platform/internal/models/modelqueue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func runBroker(t *testing.T, providerStatus int, retryNumber int) (chan modelqueue.PayoutQueueEntry, chan modelqueue.PayoutQueueEntry, func()) {
	t.Helper()
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := ioutil.ReadAll(r.Body)
		assert.NoError(t, err)
		var payload map[string]string
		assert.NoError(t, json.Unmarshal(b, &payload))
		assert.NotEmpty(t, payload["withdrawal_id"])
		w.WriteHeader(providerStatus)
	}))

	log := logger.InitLog()
	queueIn := make(chan modelqueue.PayoutQueueEntry, 10)
	queueOut := make(chan modelqueue.PayoutQueueEntry, 10)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	payoutClient := client.InitClient(&config.ServerConfig{PayoutAddress: provider.URL}, log)
	payoutBroker := InitBroker(ctx, queueIn, queueOut, log, wg, payoutClient, 2, retryNumber)
	payoutBroker.ListenAndProcess()

	return queueIn, queueOut, func() {
		cancel()
		wg.Wait()
		provider.Close()
	}
}

func TestBrokerDispatchesPayout(t *testing.T) {
	queueIn, queueOut, stop := runBroker(t, http.StatusOK, 3)
	defer stop()

	queueIn <- modelqueue.PayoutQueueEntry{
		WithdrawalID: "w-1",
		UserID:       "user-1",
		Amount:       decimal.RequireFromString("20.00"),
		Status:       modelqueue.StatusPending,
	}

	select {
	case entry := <-queueOut:
		assert.Equal(t, "w-1", entry.WithdrawalID)
		assert.Equal(t, modelqueue.StatusDispatched, entry.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("no dispatched entry arrived")
	}
}

func TestBrokerShutdownWithRetryPending(t *testing.T) {
	hits := make(chan struct{}, 8)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		hits <- struct{}{}
	}))
	defer provider.Close()

	log := logger.InitLog()
	// unbuffered in-queue so the retry re-enqueue blocks with nobody receiving
	queueIn := make(chan modelqueue.PayoutQueueEntry)
	queueOut := make(chan modelqueue.PayoutQueueEntry, 10)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	payoutClient := client.InitClient(&config.ServerConfig{PayoutAddress: provider.URL}, log)
	payoutBroker := InitBroker(ctx, queueIn, queueOut, log, wg, payoutClient, 1, 3)
	payoutBroker.ListenAndProcess()

	queueIn <- modelqueue.PayoutQueueEntry{
		WithdrawalID: "w-3",
		UserID:       "user-1",
		Amount:       decimal.RequireFromString("20.00"),
		Status:       modelqueue.StatusPending,
	}

	select {
	case <-hits:
	case <-time.After(5 * time.Second):
		t.Fatal("provider was never called")
	}
	// let the worker reach the blocked re-enqueue before shutting down
	time.Sleep(100 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broker did not shut down")
	}

	// the out-queue closes after the workers exit and nothing was dispatched
	_, ok := <-queueOut
	assert.False(t, ok)
}

func TestBrokerAbandonsAfterRetryBudget(t *testing.T) {
	queueIn, queueOut, stop := runBroker(t, http.StatusInternalServerError, 0)
	defer stop()

	queueIn <- modelqueue.PayoutQueueEntry{
		WithdrawalID: "w-2",
		UserID:       "user-1",
		Amount:       decimal.RequireFromString("20.00"),
		Status:       modelqueue.StatusPending,
	}

	select {
	case entry := <-queueOut:
		assert.Equal(t, "w-2", entry.WithdrawalID)
		assert.Equal(t, modelqueue.StatusFailed, entry.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("no failed entry arrived")
	}
}
