// Package odin valida bearer tokens contra el IAM (Odin) y los traduce a
// claims del lector.
package odin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"content-gate/internal/platform/httpclient"
	"content-gate/internal/ports/auth"
)

var (
	ErrOdinNotConfigured = errors.New("odin client not configured")
	ErrOdinUnauthorized  = errors.New("odin unauthorized")
	ErrOdinUpstream      = errors.New("odin upstream error")
	ErrTokenEmpty        = errors.New("token is empty")
	ErrMissingUser       = errors.New("odin claims missing user id")
)

const verifyPath = "/v1/tokens/verify"

// Client implementa auth.AuthVerifier; el middleware lo recibe tal cual.
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

var _ auth.AuthVerifier = (*Client)(nil)

func (c *Client) IsConfigured() bool {
	return c != nil && c.http.IsConfigured()
}

type verifyResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	PublisherID string `json:"publisher_id"`
}

func (c *Client) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}
	if !c.IsConfigured() {
		return auth.Claims{}, ErrOdinNotConfigured
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath,
		map[string]string{"Authorization": "Bearer " + token},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		// 401/403: token inválido o vencido; el resto es falla del IAM
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrOdinUnauthorized
		default:
			return auth.Claims{}, fmt.Errorf("%w: %w", ErrOdinUpstream, err)
		}
	}

	claims := auth.Claims{
		UserID:      strings.TrimSpace(out.UserID),
		Email:       strings.TrimSpace(out.Email),
		PublisherID: strings.TrimSpace(out.PublisherID),
	}
	if claims.UserID == "" {
		return auth.Claims{}, ErrMissingUser
	}
	return claims, nil
}
