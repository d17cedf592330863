// Package mcptools expone las operaciones de acceso como tools invocables por
// agentes: check_content_access, grant_temporary_access y list_tiers.
// Todas responden {"success": bool, ...}.
package mcptools

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/pricing"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/middleware"
	"content-gate/internal/platform/logger"
	"content-gate/internal/platform/money"
	"content-gate/internal/ports/payments"

	"github.com/go-chi/chi/v5"
)

const (
	ToolCheckContentAccess   = "check_content_access"
	ToolGrantTemporaryAccess = "grant_temporary_access"
	ToolListTiers            = "list_tiers"
)

// DefaultGrantDuration aplica cuando no llega ni duration_seconds ni duration_hours.
const DefaultGrantDuration = 24 * time.Hour

var errUserMismatch = errors.New("user_id does not match authenticated user")

type Options struct {
	Grants   *accessgrants.Service
	Pricing  *pricing.Service
	Catalog  *tiers.Catalog
	Payments payments.Validator // nil => no se valida el pago

	DefaultTier string
	Disabled    []string
	Log         logger.Logger
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var allTools = []toolInfo{
	{ToolCheckContentAccess, "Verifica si el usuario tiene un grant vigente para el contenido."},
	{ToolGrantTemporaryAccess, "Valida el pago y emite un grant temporal (pay-per-view)."},
	{ToolListTiers, "Lista los tiers disponibles con su precio base."},
}

type tools struct {
	Options
}

// RegisterRoutes monta POST /tools/{name} para cada tool habilitado y
// GET /tools con el listado.
func RegisterRoutes(r chi.Router, opts Options) {
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	opts.Log = opts.Log.With(map[string]any{"component": "mcptools"})
	t := &tools{Options: opts}

	disabled := map[string]bool{}
	for _, name := range opts.Disabled {
		if name = strings.TrimSpace(name); name != "" {
			disabled[name] = true
		}
	}

	handlers := map[string]http.HandlerFunc{
		ToolCheckContentAccess:   t.checkContentAccess,
		ToolGrantTemporaryAccess: t.grantTemporaryAccess,
		ToolListTiers:            t.listTiers,
	}

	enabled := make([]toolInfo, 0, len(allTools))
	r.Route("/tools", func(tr chi.Router) {
		for _, info := range allTools {
			if disabled[info.Name] {
				continue
			}
			enabled = append(enabled, info)
			tr.Post("/"+info.Name, handlers[info.Name])
		}
		tr.Get("/", listToolsHandler(enabled))
	})
}

type listToolsResponse struct {
	Success bool       `json:"success"`
	Tools   []toolInfo `json:"tools"`
}

// listToolsHandler godoc
// @Summary Listar tools habilitados
// @Tags tools
// @Produce json
// @Success 200 {object} listToolsResponse
// @Router /tools [get]
func listToolsHandler(enabled []toolInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, listToolsResponse{Success: true, Tools: enabled})
	}
}

type checkAccessRequest struct {
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id"`
	Tier      string `json:"tier"`
}

type checkAccessResponse struct {
	Success   bool   `json:"success"`
	Allowed   bool   `json:"allowed"`
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id"`

	GrantID   string     `json:"grant_id,omitempty"`
	Tier      string     `json:"tier,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	DenialReason        string       `json:"denial_reason,omitempty"`
	PayPerViewAvailable bool         `json:"pay_per_view_available,omitempty"`
	PayPerViewPrice     *money.Money `json:"pay_per_view_price,omitempty"`
	RequiredTier        string       `json:"required_tier,omitempty"`
}

// checkContentAccess godoc
// @Summary Tool check_content_access
// @Description Denegar no es error: success=true, allowed=false y, si el contenido tiene precio, pay_per_view_price.
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} checkAccessResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tools/check_content_access [post]
func (t *tools) checkContentAccess(w http.ResponseWriter, r *http.Request) {
	var req checkAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeToolError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	contentID := strings.TrimSpace(req.ContentID)
	tier := strings.TrimSpace(req.Tier)

	var d accessgrants.Decision
	if tier != "" {
		d, err = t.Grants.CheckAccessForTier(r.Context(), userID, contentID, tier)
	} else {
		d, err = t.Grants.CheckAccess(r.Context(), userID, contentID)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}

	out := checkAccessResponse{
		Success:   true,
		Allowed:   d.Allowed,
		UserID:    userID,
		ContentID: contentID,
	}
	if d.Allowed {
		out.GrantID = d.Grant.ID
		out.Tier = d.Grant.Tier.Name
		exp := d.Grant.ExpiresAt
		out.ExpiresAt = &exp
		writeJSON(w, http.StatusOK, out)
		return
	}

	out.DenialReason = "no active grant for content"
	out.RequiredTier = tier
	if t.Pricing != nil {
		price, err := t.Pricing.ComputePrice(r.Context(), contentID)
		switch {
		case err == nil:
			out.PayPerViewAvailable = true
			out.PayPerViewPrice = &price
		case !errors.Is(err, pricing.ErrUnknownContent):
			t.Log.Warn("pay-per-view quote failed", map[string]any{"content_id": contentID, "err": err})
		}
	}
	t.Log.Debug("access denied", map[string]any{"user_id": userID, "content_id": contentID, "tier": tier})
	writeJSON(w, http.StatusOK, out)
}

type grantRequest struct {
	UserID          string  `json:"user_id"`
	ContentID       string  `json:"content_id"`
	Tier            string  `json:"tier"`
	DurationSeconds int64   `json:"duration_seconds"`
	DurationHours   float64 `json:"duration_hours"`
	PaymentToken    string  `json:"payment_token"`
}

type grantResponse struct {
	Success         bool        `json:"success"`
	GrantID         string      `json:"grant_id"`
	UserID          string      `json:"user_id"`
	ContentID       string      `json:"content_id"`
	Tier            string      `json:"tier"`
	Price           money.Money `json:"price"`
	IssuedAt        time.Time   `json:"issued_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
	DurationSeconds int64       `json:"duration_seconds"`
}

// grantTemporaryAccess godoc
// @Summary Tool grant_temporary_access
// @Description Cotiza, valida el payment token y emite un grant. Cada llamada exitosa cobra y emite un grant nuevo.
// @Tags tools
// @Accept json
// @Produce json
// @Success 201 {object} grantResponse
// @Failure 400 {object} errorResponse
// @Failure 402 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /tools/grant_temporary_access [post]
func (t *tools) grantTemporaryAccess(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeToolError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	tier := strings.TrimSpace(req.Tier)
	if tier == "" {
		tier = t.DefaultTier
	}
	seconds := durationSeconds(req.DurationSeconds, req.DurationHours)

	in := accessgrants.IssueInput{
		UserID:          userID,
		ContentID:       req.ContentID,
		TierName:        tier,
		DurationSeconds: seconds,
	}
	if err := t.Grants.ValidateIssue(in); err != nil {
		writeFailure(w, err)
		return
	}

	if t.Payments != nil {
		price, _, err := t.Grants.Quote(r.Context(), req.ContentID, tier)
		if err != nil {
			writeFailure(w, err)
			return
		}
		err = t.Payments.Validate(r.Context(), payments.Check{
			Token:     req.PaymentToken,
			UserID:    userID,
			ContentID: strings.TrimSpace(req.ContentID),
			Amount:    price,
		})
		if err != nil {
			t.Log.Info("payment rejected", map[string]any{"user_id": userID, "content_id": req.ContentID, "err": err})
			writeFailure(w, err)
			return
		}
		in.QuotedPrice = &price
	}

	g, err := t.Grants.IssueGrant(r.Context(), in)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, grantResponse{
		Success:         true,
		GrantID:         g.ID,
		UserID:          g.UserID,
		ContentID:       g.ContentID,
		Tier:            g.Tier.Name,
		Price:           g.Price,
		IssuedAt:        g.IssuedAt,
		ExpiresAt:       g.ExpiresAt,
		DurationSeconds: seconds,
	})
}

// listTiers godoc
// @Summary Tool list_tiers
// @Tags tools
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tools/list_tiers [post]
func (t *tools) listTiers(w http.ResponseWriter, _ *http.Request) {
	items := t.Catalog.List()
	out := make([]tiers.TierResponse, 0, len(items))
	for _, it := range items {
		out = append(out, tiers.ToResponse(it))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"default_tier": t.DefaultTier,
		"tiers":        out,
	})
}

// durationSeconds: duration_seconds gana; si no, duration_hours; si no, 24h.
// Valores <= 0 explícitos pasan tal cual para que el servicio los rechace.
func durationSeconds(seconds int64, hours float64) int64 {
	switch {
	case seconds != 0:
		return seconds
	case hours != 0:
		if math.IsNaN(hours) || math.IsInf(hours, 0) || hours > float64(math.MaxInt64/3600) {
			return -1
		}
		return int64(math.Round(hours * 3600))
	default:
		return int64(DefaultGrantDuration / time.Second)
	}
}

// resolveUser prioriza el usuario autenticado; user_id en el body sólo
// aplica sin claims y no puede contradecirlas.
func resolveUser(r *http.Request, bodyUserID string) (string, error) {
	bodyUserID = strings.TrimSpace(bodyUserID)
	authUserID := middleware.UserID(r.Context())
	switch {
	case authUserID == "":
		if bodyUserID == "" {
			return "", accessgrants.ErrInvalidInput
		}
		return bodyUserID, nil
	case bodyUserID != "" && bodyUserID != authUserID:
		return "", errUserMismatch
	default:
		return authUserID, nil
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUserMismatch):
		writeToolError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, accessgrants.ErrInvalidInput), errors.Is(err, accessgrants.ErrInvalidDuration):
		writeToolError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tiers.ErrUnknownTier):
		writeToolError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrUnknownContent):
		writeToolError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payments.ErrRejected):
		writeToolError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ledger.ErrDuplicateGrant):
		writeToolError(w, http.StatusConflict, "grant issuance conflict, retry")
	case errors.Is(err, accessgrants.ErrPriceChanged):
		writeToolError(w, http.StatusConflict, "price changed, quote again")
	case errors.Is(err, accessgrants.ErrIssuanceFailed):
		writeToolError(w, http.StatusInternalServerError, "grant issuance failed")
	default:
		writeToolError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeToolError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
