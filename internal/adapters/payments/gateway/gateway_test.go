package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"content-gate/internal/platform/httpclient"
	"content-gate/internal/platform/money"
	"content-gate/internal/ports/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(token string) payments.Check {
	return payments.Check{Token: token, UserID: "u1", ContentID: "c1", Amount: money.New(1500, "usd")}
}

func TestDevValidator(t *testing.T) {
	v := DevValidator{}
	assert.NoError(t, v.Validate(context.Background(), check("tok_1234567890")))
	assert.ErrorIs(t, v.Validate(context.Background(), check("")), payments.ErrRejected)
	assert.ErrorIs(t, v.Validate(context.Background(), check("short")), payments.ErrRejected)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(httpclient.Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)
	return c
}

func TestClient_Valid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1500), req.Amount)
		assert.Equal(t, "usd", req.Currency)
		_ = json.NewEncoder(w).Encode(verifyResponse{Valid: true})
	})
	assert.NoError(t, c.Validate(context.Background(), check("tok_1234567890")))
}

func TestClient_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(verifyResponse{Valid: false, Reason: "insufficient funds"})
	})
	err := c.Validate(context.Background(), check("tok_1234567890"))
	assert.ErrorIs(t, err, payments.ErrRejected)
	assert.Contains(t, err.Error(), "insufficient funds")

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})
	assert.ErrorIs(t, c.Validate(context.Background(), check("tok_1234567890")), payments.ErrRejected)
}

func TestClient_UpstreamFailureIsNotRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := c.Validate(context.Background(), check("tok_1234567890"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, payments.ErrRejected)
}

func TestClient_ShortTokenSkipsUpstream(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	assert.ErrorIs(t, c.Validate(context.Background(), check("abc")), payments.ErrRejected)
	assert.False(t, called)
}
