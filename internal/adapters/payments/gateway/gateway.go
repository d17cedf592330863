// Package gateway valida payment tokens contra el procesador de pagos.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"content-gate/internal/platform/httpclient"
	"content-gate/internal/ports/payments"
)

var (
	ErrNotConfigured = errors.New("payments gateway not configured")
	ErrUpstream      = errors.New("payments gateway upstream error")
)

// MinTokenLength: tokens más cortos se rechazan sin llamar al procesador.
const MinTokenLength = 10

const verifyPath = "/v1/payments/verify"

type Client struct {
	http *httpclient.Client
}

func NewClient(cfg httpclient.Config) (*Client, error) {
	hc, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

var _ payments.Validator = (*Client)(nil)

type verifyRequest struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func (c *Client) Validate(ctx context.Context, in payments.Check) error {
	if err := checkShape(in.Token); err != nil {
		return err
	}
	if c == nil || !c.http.IsConfigured() {
		return ErrNotConfigured
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath, nil, verifyRequest{
		Token:     strings.TrimSpace(in.Token),
		UserID:    in.UserID,
		ContentID: in.ContentID,
		Amount:    in.Amount.Amount,
		Currency:  in.Amount.Currency,
	}, &out)
	if err != nil {
		// 402/422: el procesador rechazó el pago; el resto es falla de upstream
		switch httpclient.StatusOf(err) {
		case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %w", payments.ErrRejected, err)
		default:
			return fmt.Errorf("%w: %w", ErrUpstream, err)
		}
	}
	if !out.Valid {
		if out.Reason == "" {
			out.Reason = "invalid payment token"
		}
		return fmt.Errorf("%w: %s", payments.ErrRejected, out.Reason)
	}
	return nil
}

// DevValidator acepta cualquier token con forma válida. Para desarrollo y
// tests, cuando no hay procesador configurado.
type DevValidator struct{}

var _ payments.Validator = DevValidator{}

func (DevValidator) Validate(_ context.Context, in payments.Check) error {
	return checkShape(in.Token)
}

func checkShape(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: payment token required", payments.ErrRejected)
	}
	if len(token) < MinTokenLength {
		return fmt.Errorf("%w: payment token too short", payments.ErrRejected)
	}
	return nil
}
