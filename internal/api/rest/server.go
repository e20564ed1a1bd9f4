// Package rest provides functionality for initializing a server
package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/osseasofertas/review-platform/internal/api/rest/client"
	"github.com/osseasofertas/review-platform/internal/api/rest/handlers"
	"github.com/osseasofertas/review-platform/internal/api/rest/middleware"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/service/broker/v1/broker"
	"github.com/osseasofertas/review-platform/internal/service/processor/v1/processor"
	"github.com/osseasofertas/review-platform/internal/service/secretary/v1/secretary"
	"github.com/osseasofertas/review-platform/internal/service/store"
	"github.com/osseasofertas/review-platform/internal/storage/v1/inpsql"
	"github.com/rs/zerolog"
)

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger, wg *sync.WaitGroup) (server *http.Server, err error) {
	// initialize storage
	storage, err := inpsql.InitStorage(ctx, cfg.StorageConfig, log, wg)
	if err != nil {
		return nil, err
	}

	// initialize secretary
	secretaryService, err := secretary.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize token handler
	tokenHandler, err := middleware.NewTokenHandler(secretaryService, cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize main service
	mainService, err := processor.InitService(storage, secretaryService, store.SystemClock(), cfg.PolicyConfig)
	if err != nil {
		return nil, err
	}

	// initialize payout dispatch
	payoutClient := client.InitClient(cfg.ServerConfig, log)
	payoutBroker := broker.InitBroker(ctx, storage.QueueIn, storage.QueueOut, log, wg, payoutClient, cfg.QueueConfig.WorkerNumber, cfg.QueueConfig.RetryNumber)
	payoutBroker.ListenAndProcess()

	urlHandler, err := handlers.InitHandlers(mainService, cfg.ServerConfig, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.CompressHandle)
	r.Use(middleware.DecompressHandle)
	loginGroup := r.Group(nil)
	loginGroup.Post("/api/auth/register", urlHandler.HandleRegister())
	loginGroup.Post("/api/auth/login", urlHandler.HandleLogin())
	loginGroup.Post("/api/auth/demo", urlHandler.HandleDemo())
	mainGroup := r.Group(nil)
	mainGroup.Use(tokenHandler.TokenHandle)
	mainGroup.Post("/api/auth/logout", urlHandler.HandleLogout())
	mainGroup.Get("/api/products", urlHandler.HandleGetProducts())
	mainGroup.Get("/api/users/{userID}", urlHandler.HandleGetUser())
	mainGroup.Get("/api/users/{userID}/stats", urlHandler.HandleGetStats())
	mainGroup.Get("/api/transactions/{userID}", urlHandler.HandleGetTransactions())
	mainGroup.Post("/api/evaluations", urlHandler.HandleNewEvaluation())
	mainGroup.Get("/api/evaluations/draft", urlHandler.HandleGetDraft())
	mainGroup.Post("/api/evaluations/draft", urlHandler.HandleSaveDraft())
	mainGroup.Delete("/api/evaluations/draft", urlHandler.HandleDeleteDraft())
	mainGroup.Post("/api/payout-method", urlHandler.HandlePayoutMethod())
	mainGroup.Post("/api/withdrawals", urlHandler.HandleNewWithdrawal())

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}
