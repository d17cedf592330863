package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"content-gate/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

type verifierFunc func(ctx context.Context, token string) (auth.Claims, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return f(ctx, token)
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (auth.Claims, bool) {
	t.Helper()
	var (
		got auth.Claims
		ok  bool
	)
	h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, " u1 ")
	req.Header.Set(DebugPublisherHeader, "pub")

	c, ok := serve(t, AuthContext(nil, nil), req)
	assert.True(t, ok)
	assert.Equal(t, auth.Claims{UserID: "u1", PublisherID: "pub"}, c)
}

func TestAuthContext_DevWithoutHeader(t *testing.T) {
	_, ok := serve(t, AuthContext(nil, nil), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestAuthContext_Bearer(t *testing.T) {
	v := verifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
		if token != "good" {
			return auth.Claims{}, errors.New("bad token")
		}
		return auth.Claims{UserID: "u9"}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	c, ok := serve(t, AuthContext(v, nil), req)
	assert.True(t, ok)
	assert.Equal(t, "u9", c.UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	_, ok = serve(t, AuthContext(v, nil), req)
	assert.False(t, ok)

	// con verifier, el header de debug se ignora
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, "u1")
	_, ok = serve(t, AuthContext(v, nil), req)
	assert.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}

func TestRequirePublisher(t *testing.T) {
	cases := []struct {
		name   string
		claims *auth.Claims
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"reader", &auth.Claims{UserID: "u1"}, http.StatusForbidden},
		{"blank publisher", &auth.Claims{UserID: "u1", PublisherID: "  "}, http.StatusForbidden},
		{"publisher", &auth.Claims{UserID: "u1", PublisherID: "pub-1"}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequirePublisher(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "pub-1", PublisherID(r.Context()))
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodPut, "/contents/a1", nil)
			if tc.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), *tc.claims))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}
