package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/osseasofertas/review-platform/internal/api/rest/middleware"
	"github.com/shopspring/decimal"
)

type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Payout struct {
	WithdrawalID string `json:"withdrawal_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Status       string `json:"status"`
}

type ServerConfig struct {
	ServerAddress string `env:"RUN_ADDRESS"`
}

func NewServerConfig() (*ServerConfig, error) {
	cfg := ServerConfig{}
	err := env.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func (c *ServerConfig) ParseFlags() {
	a := flag.String("a", ":7070", "Server address")
	flag.Parse()
	if isFlagPassed("a") || c.ServerAddress == "" {
		c.ServerAddress = *a
	}
}

func HandleMockPayoutService() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// mock http status 429 error
		chance429 := 10
		if chance429 > rand.Intn(100) {
			log.Println("responding with error 429")
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusTooManyRequests)
			response429 := Response{
				Error: "No more than N requests per minute allowed",
			}
			resBody, _ := json.Marshal(response429)
			w.Write(resBody)
			return
		}

		// mock http status 500 error
		chance500 := 20
		if chance500 > rand.Intn(100) {
			log.Println("responding with error 500")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		// mock normal behaviour
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			log.Println("responding with error 500")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payout Payout
		err = json.Unmarshal(b, &payout)
		if err != nil || payout.WithdrawalID == "" || payout.UserID == "" {
			log.Println("responding with error 400")
			w.WriteHeader(http.StatusBadRequest)
			response400 := Response{
				Error: "Invalid payout request body",
			}
			resBody, _ := json.Marshal(response400)
			w.Write(resBody)
			return
		}
		amount, err := decimal.NewFromString(payout.Amount)
		if err != nil || !amount.IsPositive() {
			log.Println("responding with error 422")
			w.WriteHeader(http.StatusUnprocessableEntity)
			response422 := Response{
				Error: "Illegal payout amount",
			}
			resBody, _ := json.Marshal(response422)
			w.Write(resBody)
			return
		}

		payout.Status = "ACCEPTED"
		log.Println("responding with status 200")
		w.WriteHeader(http.StatusOK)
		resBody, _ := json.Marshal(payout)
		w.Write(resBody)
	}
}

func InitServer(cfg *ServerConfig) (server *http.Server, err error) {
	r := chi.NewRouter()
	r.Use(middleware.CompressHandle)
	r.Use(middleware.DecompressHandle)
	r.Post("/api/payouts", HandleMockPayoutService())
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}

func main() {
	rand.Seed(time.Now().UnixNano())
	cfg, err := NewServerConfig()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ParseFlags()
	server, err := InitServer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("payout emulator start attempted")
	log.Fatal(server.ListenAndServe())
}
