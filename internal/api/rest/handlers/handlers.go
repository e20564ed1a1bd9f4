// Package handlers provides API endpoint handling functionality.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	handlersErrors "github.com/osseasofertas/review-platform/internal/api/rest/errors"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/models/modeldto"
	"github.com/osseasofertas/review-platform/internal/service/processor/v1"
	serviceErrors "github.com/osseasofertas/review-platform/internal/service/processor/v1/errors"
	storeErrors "github.com/osseasofertas/review-platform/internal/service/store/errors"
	storageErrors "github.com/osseasofertas/review-platform/internal/storage/v1/errors"
	"github.com/rs/zerolog"
)

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	service      processor.Processor
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
}

// InitHandlers initializes a handler object.
func InitHandlers(mainService processor.Processor, serverConfig *config.ServerConfig, log *zerolog.Logger) (*Handler, error) {
	if mainService == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil processor was passed to handlers initializer"}
	}
	return &Handler{service: mainService, serverConfig: serverConfig, log: log}, nil
}

// HandleRegister processes user register requests.
func (h *Handler) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.Credentials
		if !h.readJSON(w, r, &credentials, "HandleRegister") {
			return
		}
		if len(credentials.Name) == 0 || len(credentials.Email) == 0 || len(credentials.Password) == 0 {
			h.log.Error().Msg("HandleRegister failed")
			http.Error(w, "Empty values are not allowed", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new user register request detected for %s", credentials.Email))
		response, err := h.service.RegisterUser(ctx, credentials)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var alreadyExistsError *storageErrors.AlreadyExistsError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &alreadyExistsError) {
				w.WriteHeader(http.StatusConflict)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Authorization", "Bearer "+response.AccessToken)
		h.writeJSON(w, http.StatusOK, response, "HandleRegister")
	}
}

// HandleLogin processes user login requests. Bad credentials yield a generic
// rejection; an active lockout yields a locked response with the days left.
func (h *Handler) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.Credentials
		if !h.readJSON(w, r, &credentials, "HandleLogin") {
			return
		}
		if credentials.Email == "" || credentials.Password == "" {
			h.log.Error().Msg("HandleLogin failed")
			http.Error(w, "Empty values are not allowed", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new login request detected for %s", credentials.Email))
		response, err := h.service.LoginUser(ctx, credentials)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notFoundError *storageErrors.NotFoundError
			var loginLocked *serviceErrors.ServiceLoginLocked
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &notFoundError) {
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			} else if errors.As(err, &loginLocked) {
				h.writeJSON(w, http.StatusLocked, modeldto.LoginLocked{Locked: true, DaysUntilAllowed: loginLocked.DaysLeft}, "HandleLogin")
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Authorization", "Bearer "+response.AccessToken)
		h.writeJSON(w, http.StatusOK, response, "HandleLogin")
	}
}

// HandleDemo processes demo login requests.
func (h *Handler) HandleDemo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		h.log.Info().Msg("new demo login request detected")
		response, err := h.service.DemoUser(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDemo failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Authorization", "Bearer "+response.AccessToken)
		h.writeJSON(w, http.StatusOK, response, "HandleDemo")
	}
}

// HandleLogout processes logout requests, stamping the login lockout.
func (h *Handler) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID, err := h.getUserID(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogout failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		err = h.service.LogoutUser(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogout failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleGetProducts processes catalog query requests, signalling the daily
// evaluation cap with a limit-reached payload.
func (h *Handler) HandleGetProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			var err error
			userID, err = h.getUserID(r)
			if err != nil {
				h.log.Error().Err(err).Msg("HandleGetProducts failed")
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
		}
		products, err := h.service.GetProducts(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetProducts failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var limitReached *serviceErrors.ServiceDailyLimitReached
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &limitReached) {
				h.writeJSON(w, http.StatusTooManyRequests, modeldto.LimitReached{LimitReached: true, TodayEvaluations: limitReached.Count, Limit: limitReached.Limit}, "HandleGetProducts")
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, products, "HandleGetProducts")
	}
}

// HandleGetUser processes user profile query requests.
func (h *Handler) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		user, err := h.service.GetUser(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetUser failed")
			var notFoundError *storageErrors.NotFoundError
			if errors.As(err, &notFoundError) {
				w.WriteHeader(http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, user, "HandleGetUser")
	}
}

// HandleGetStats processes evaluation statistics query requests.
func (h *Handler) HandleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		stats, err := h.service.GetStats(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetStats failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, stats, "HandleGetStats")
	}
}

// HandleGetTransactions processes ledger query requests.
func (h *Handler) HandleGetTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		transactions, err := h.service.GetTransactions(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetTransactions failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(transactions) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeJSON(w, http.StatusOK, transactions, "HandleGetTransactions")
	}
}

// HandleNewEvaluation processes evaluation submissions.
func (h *Handler) HandleNewEvaluation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var newEvaluation modeldto.NewEvaluation
		if !h.readJSON(w, r, &newEvaluation, "HandleNewEvaluation") {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new evaluation request detected for product %s", newEvaluation.ProductID))
		result, err := h.service.AddEvaluation(ctx, newEvaluation)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewEvaluation failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var validationError *storeErrors.ValidationError
			var completedError *storeErrors.EvaluationCompletedError
			var limitReached *serviceErrors.ServiceDailyLimitReached
			var unknownProduct *serviceErrors.ServiceUnknownProduct
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &validationError) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else if errors.As(err, &completedError) {
				http.Error(w, err.Error(), http.StatusConflict)
			} else if errors.As(err, &limitReached) {
				h.writeJSON(w, http.StatusTooManyRequests, modeldto.LimitReached{LimitReached: true, TodayEvaluations: limitReached.Count, Limit: limitReached.Limit}, "HandleNewEvaluation")
			} else if errors.As(err, &unknownProduct) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, result, "HandleNewEvaluation")
	}
}

// HandleSaveDraft processes draft save requests.
func (h *Handler) HandleSaveDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var draft modeldto.Draft
		if !h.readJSON(w, r, &draft, "HandleSaveDraft") {
			return
		}
		err := h.service.SaveDraft(ctx, draft)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleSaveDraft failed")
			var unknownProduct *serviceErrors.ServiceUnknownProduct
			if errors.As(err, &unknownProduct) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleGetDraft processes draft retrieval requests.
func (h *Handler) HandleGetDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := r.URL.Query().Get("userId")
		productID := r.URL.Query().Get("productId")
		draft, err := h.service.GetDraft(ctx, userID, productID)
		if err != nil {
			var notFoundError *storageErrors.NotFoundError
			if errors.As(err, &notFoundError) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.log.Error().Err(err).Msg("HandleGetDraft failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, draft, "HandleGetDraft")
	}
}

// HandleDeleteDraft processes draft discard requests.
func (h *Handler) HandleDeleteDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := r.URL.Query().Get("userId")
		productID := r.URL.Query().Get("productId")
		err := h.service.DeleteDraft(ctx, userID, productID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeleteDraft failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandlePayoutMethod processes payout method configuration requests.
func (h *Handler) HandlePayoutMethod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var method modeldto.NewPayoutMethod
		if !h.readJSON(w, r, &method, "HandlePayoutMethod") {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new payout method request detected for %s", method.UserID))
		err := h.service.SetPayoutMethod(ctx, method)
		if err != nil {
			h.log.Error().Err(err).Msg("HandlePayoutMethod failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var illegalMethod *serviceErrors.ServiceIllegalPayoutMethod
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &illegalMethod) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleNewWithdrawal processes new withdrawal requests.
func (h *Handler) HandleNewWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var withdrawal modeldto.NewWithdrawal
		if !h.readJSON(w, r, &withdrawal, "HandleNewWithdrawal") {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new withdrawal request detected for %v", withdrawal))
		result, err := h.service.AddWithdrawal(ctx, withdrawal)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewWithdrawal failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var illegalAmount *serviceErrors.ServiceIllegalAmount
			var methodMissing *serviceErrors.ServicePayoutMethodMissing
			var cooldownActive *storeErrors.CooldownActiveError
			var notEnoughFunds *storeErrors.InsufficientFundsError
			var validationError *storeErrors.ValidationError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &illegalAmount) || errors.As(err, &methodMissing) || errors.As(err, &validationError) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else if errors.As(err, &cooldownActive) || errors.As(err, &notEnoughFunds) {
				http.Error(w, err.Error(), http.StatusPaymentRequired)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, result, "HandleNewWithdrawal")
	}
}

// getUserID retrieves user identifier from the request metadata.
func (h *Handler) getUserID(r *http.Request) (string, error) {
	accessToken := r.Header.Get("Authorization")
	if len(accessToken) == 0 {
		return "", errors.New("token authorization required")
	}
	accessToken = strings.Replace(accessToken, "Bearer ", "", 1)
	userID, err := h.service.GetUserID(accessToken)
	if err != nil {
		return "", err
	}
	return userID, nil
}

// readJSON unmarshals a JSON request body, replying with the appropriate
// status on failure.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}, caller string) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "Invalid Content-Type", http.StatusBadRequest)
		return false
	}
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg(caller + " failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	err = json.Unmarshal(b, dst)
	if err != nil {
		h.log.Error().Err(err).Msg(caller + " failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON marshals a JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}, caller string) {
	resBody, err := json.Marshal(body)
	if err != nil {
		h.log.Error().Err(err).Msg(caller + " failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(resBody)
	if err != nil {
		h.log.Error().Err(err).Msg(caller + " failed")
	}
}
