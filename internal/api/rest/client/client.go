// Package client implements a client for submitting payouts to the external payout provider.
package client

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/osseasofertas/review-platform/internal/config"
	"github.com/osseasofertas/review-platform/internal/models/modelqueue"
	"github.com/rs/zerolog"
)

// Client defines attributes of a struct available to its methods.
type Client struct {
	client       *resty.Client
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
}

type payoutRequest struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       string `json:"amount"`
}

// InitClient initializes a resty client.
func InitClient(serverConfig *config.ServerConfig, log *zerolog.Logger) *Client {
	payoutClient := resty.New()
	log.Info().Msg("payout provider client initialized")
	return &Client{client: payoutClient, serverConfig: serverConfig, log: log}
}

// SendPayout submits one withdrawal to the payout provider.
func (c *Client) SendPayout(ctx context.Context, entry modelqueue.PayoutQueueEntry) (*resty.Response, error) {
	c.log.Info().Msg(fmt.Sprintf("sending payout request for withdrawal %s", entry.WithdrawalID))
	response, err := c.client.R().SetContext(ctx).SetBody(payoutRequest{
		WithdrawalID: entry.WithdrawalID,
		UserID:       entry.UserID,
		Amount:       entry.Amount.StringFixed(2),
	}).Post(c.serverConfig.PayoutAddress + "/api/payouts")
	if err != nil {
		c.log.Err(err).Msg(fmt.Sprintf("payout submission failed for withdrawal %s", entry.WithdrawalID))
		return nil, err
	}
	return response, nil
}
