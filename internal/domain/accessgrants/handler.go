package accessgrants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/pricing"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/middleware"
	"content-gate/internal/platform/money"
	"content-gate/internal/ports/payments"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta emisión y verificación de grants.
// Si payments es nil, POST /grants no exige payment_token (modo dev).
func RegisterRoutes(r chi.Router, svc *Service, pay payments.Validator) {
	r.Route("/grants", func(gr chi.Router) {
		gr.Post("/", issueGrantHandler(svc, pay))
		gr.Get("/{grantID}", getGrantHandler(svc))
	})

	r.Route("/me/grants", func(mr chi.Router) {
		mr.Get("/", listMyGrantsHandler(svc))
	})

	r.Get("/access/{contentID}", checkAccessHandler(svc))
}

type issueGrantRequest struct {
	ContentID       string `json:"content_id"`
	Tier            string `json:"tier"`
	DurationSeconds int64  `json:"duration_seconds"`
	PaymentToken    string `json:"payment_token"`
}

type GrantResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	ContentID string             `json:"content_id"`
	Tier      tiers.TierResponse `json:"tier"`
	IssuedAt  time.Time          `json:"issued_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	Price     money.Money        `json:"price"`
	Active    bool               `json:"active"`
}

type AccessResponse struct {
	ContentID string         `json:"content_id"`
	Allowed   bool           `json:"allowed"`
	Grant     *GrantResponse `json:"grant,omitempty"`
}

// issueGrantHandler godoc
// @Summary Emitir grant temporal
// @Description Cotiza el contenido, valida el payment token y emite un grant con su entry de ledger. Cada llamada emite un grant nuevo.
// @Tags grants
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 201 {object} GrantResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 402 {string} string "payment rejected"
// @Failure 404 {string} string "unknown tier"
// @Failure 409 {string} string "grant issuance conflict or price changed"
// @Failure 500 {string} string "grant issuance failed"
// @Router /grants [post]
func issueGrantHandler(svc *Service, pay payments.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req issueGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ContentID) == "" || strings.TrimSpace(req.Tier) == "" {
			http.Error(w, "content_id and tier required", http.StatusBadRequest)
			return
		}

		in := IssueInput{
			UserID:          userID,
			ContentID:       req.ContentID,
			TierName:        req.Tier,
			DurationSeconds: req.DurationSeconds,
		}
		// errores del caller antes de registrar contenido o llamar al gateway
		if err := svc.ValidateIssue(in); err != nil {
			WriteError(w, err)
			return
		}

		if pay != nil {
			price, _, err := svc.Quote(r.Context(), req.ContentID, req.Tier)
			if err != nil {
				WriteError(w, err)
				return
			}
			err = pay.Validate(r.Context(), payments.Check{
				Token:     req.PaymentToken,
				UserID:    userID,
				ContentID: strings.TrimSpace(req.ContentID),
				Amount:    price,
			})
			if err != nil {
				WriteError(w, err)
				return
			}
			in.QuotedPrice = &price
		}

		g, err := svc.IssueGrant(r.Context(), in)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToResponse(g, svc.Now()))
	}
}

// getGrantHandler godoc
// @Summary Obtener grant
// @Tags grants
// @Produce json
// @Param grantID path string true "ID del grant"
// @Success 200 {object} GrantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /grants/{grantID} [get]
func getGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		g, err := svc.Get(r.Context(), chi.URLParam(r, "grantID"), userID)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(g, svc.Now()))
	}
}

// listMyGrantsHandler godoc
// @Summary Mis grants
// @Description Grants del usuario autenticado, más recientes primero. `active=true` descarta los vencidos.
// @Tags grants
// @Produce json
// @Param active query bool false "Sólo grants vigentes"
// @Success 200 {array} GrantResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/grants [get]
func listMyGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		activeOnly := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")
		items, err := svc.ListByUser(r.Context(), userID, activeOnly)
		if err != nil {
			WriteError(w, err)
			return
		}

		now := svc.Now()
		out := make([]GrantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, ToResponse(g, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// checkAccessHandler godoc
// @Summary Verificar acceso
// @Description Denegar no es un error: devuelve 200 con allowed=false.
// @Tags grants
// @Produce json
// @Param contentID path string true "ID del contenido"
// @Param tier query string false "Tier mínimo requerido"
// @Success 200 {object} AccessResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "unknown tier"
// @Router /access/{contentID} [get]
func checkAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		contentID := chi.URLParam(r, "contentID")
		var (
			d   Decision
			err error
		)
		if tier := strings.TrimSpace(r.URL.Query().Get("tier")); tier != "" {
			d, err = svc.CheckAccessForTier(r.Context(), userID, contentID, tier)
		} else {
			d, err = svc.CheckAccess(r.Context(), userID, contentID)
		}
		if err != nil {
			WriteError(w, err)
			return
		}

		out := AccessResponse{ContentID: contentID, Allowed: d.Allowed}
		if d.Allowed {
			g := ToResponse(d.Grant, svc.Now())
			out.Grant = &g
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// WriteError mapea errores de emisión/verificación a status HTTP.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidDuration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, tiers.ErrUnknownTier):
		http.Error(w, "unknown tier", http.StatusNotFound)
	case errors.Is(err, pricing.ErrUnknownContent):
		http.Error(w, "unknown content", http.StatusNotFound)
	case errors.Is(err, payments.ErrRejected):
		http.Error(w, "payment rejected", http.StatusPaymentRequired)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrDuplicateGrant):
		http.Error(w, "grant issuance conflict, retry", http.StatusConflict)
	case errors.Is(err, ErrPriceChanged):
		http.Error(w, "price changed, quote again", http.StatusConflict)
	case errors.Is(err, ErrIssuanceFailed):
		http.Error(w, "grant issuance failed", http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func ToResponse(g Grant, now time.Time) GrantResponse {
	return GrantResponse{
		ID:        g.ID,
		UserID:    g.UserID,
		ContentID: g.ContentID,
		Tier:      tiers.ToResponse(g.Tier),
		IssuedAt:  g.IssuedAt,
		ExpiresAt: g.ExpiresAt,
		Price:     g.Price,
		Active:    g.ActiveAt(now),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
