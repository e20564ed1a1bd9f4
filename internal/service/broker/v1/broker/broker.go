// Package broker provides payout dispatch workers feeding off the withdrawal queue.
package broker

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/osseasofertas/review-platform/internal/api/rest/client"
	"github.com/osseasofertas/review-platform/internal/models/modelqueue"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Broker struct {
	ctx          context.Context
	log          *zerolog.Logger
	queueIn      chan modelqueue.PayoutQueueEntry
	queueOut     chan modelqueue.PayoutQueueEntry
	wg           *sync.WaitGroup
	client       *client.Client
	workerNumber int
	retryNumber  int
}

type payoutWorker struct {
	ID          int
	ctx         context.Context
	log         *zerolog.Logger
	queueIn     chan modelqueue.PayoutQueueEntry
	queueOut    chan modelqueue.PayoutQueueEntry
	client      *client.Client
	retryNumber int
}

// InitBroker initializes a payout dispatch broker.
func InitBroker(ctx context.Context, queueIn chan modelqueue.PayoutQueueEntry, queueOut chan modelqueue.PayoutQueueEntry, log *zerolog.Logger, wg *sync.WaitGroup, payoutClient *client.Client, workerNumber int, retryNumber int) *Broker {
	broker := Broker{
		ctx:          ctx,
		log:          log,
		queueIn:      queueIn,
		queueOut:     queueOut,
		wg:           wg,
		client:       payoutClient,
		workerNumber: workerNumber,
		retryNumber:  retryNumber,
	}
	return &broker
}

// ListenAndProcess starts the worker pool consuming pending withdrawals.
func (b *Broker) ListenAndProcess() {
	b.wg.Add(1)
	go func() {
		b.log.Info().Msg("started listening to queue for pending withdrawals")
		defer b.wg.Done()
		g, _ := errgroup.WithContext(b.ctx)
		for i := 0; i < b.workerNumber; i++ {
			w := &payoutWorker{ID: i, ctx: b.ctx, queueIn: b.queueIn, queueOut: b.queueOut, log: b.log, client: b.client, retryNumber: b.retryNumber}
			g.Go(w.processAsync)
		}
		<-b.ctx.Done()
		b.log.Info().Msg("stopped listening to queue for pending withdrawals")
		err := g.Wait()
		if err != nil {
			b.log.Error().Err(err).Msg("closing errgroup failed")
		}
		close(b.queueOut)
		b.log.Info().Msg("closed queue for processed withdrawals")
	}()
}

// processAsync dispatches queued withdrawals until the context is canceled.
// The in-queue is never closed: the storage layer keeps a send reference and
// the retry path re-enqueues into it, so workers leave via ctx instead.
func (w *payoutWorker) processAsync() error {
	for {
		var record modelqueue.PayoutQueueEntry
		select {
		case <-w.ctx.Done():
			return nil
		case record = <-w.queueIn:
		}
		// wait out the cooldown before retrying the same withdrawal
		if wait := 10*time.Second - time.Since(record.LastChecked); record.RetryCount > 0 && wait > 0 {
			select {
			case <-w.ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
		response, err := w.client.SendPayout(w.ctx, record)
		if err != nil || response.StatusCode() != http.StatusOK {
			if record.RetryCount >= w.retryNumber {
				// abandon dispatch once the retry budget is exhausted
				w.log.Warn().Msg(fmt.Sprintf("WID %v, withdrawal %v — abandonment due to retry limit exceeding", w.ID, record.WithdrawalID))
				record.Status = modelqueue.StatusFailed
				w.queueOut <- record
				continue
			}
			w.log.Warn().Msg(fmt.Sprintf("WID %v, withdrawal %v — could not dispatch, sending back to queue", w.ID, record.WithdrawalID))
			record.RetryCount += 1
			record.LastChecked = time.Now()
			select {
			case <-w.ctx.Done():
				return nil
			case w.queueIn <- record:
			}
			continue
		}
		w.log.Info().Msg(fmt.Sprintf("WID %v, withdrawal %v — dispatched, sending to DB", w.ID, record.WithdrawalID))
		record.Status = modelqueue.StatusDispatched
		w.queueOut <- record
	}
}
