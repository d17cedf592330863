package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content-gate/internal/middleware"
	"content-gate/internal/platform/money"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta el ledger y las stats; todo exige un publisher.
// Los lectores ven sus compras en /me/grants.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/ledger", func(lr chi.Router) {
		lr.Use(middleware.RequirePublisher)
		lr.Get("/entries", listEntriesHandler(svc))
		lr.Get("/revenue", revenueHandler(svc))
		lr.Get("/grants/{grantID}", getByGrantHandler(svc))
	})
	r.With(middleware.RequirePublisher).Get("/stats", statsHandler(svc))
}

type EntryResponse struct {
	ID            string      `json:"id"`
	GrantID       string      `json:"grant_id"`
	UserID        string      `json:"user_id"`
	ContentID     string      `json:"content_id"`
	Tier          string      `json:"tier"`
	ComputedPrice money.Money `json:"computed_price"`
	RecordedAt    time.Time   `json:"recorded_at"`
}

type RevenueResponse struct {
	Total money.Money `json:"total"`
}

type StatsResponse struct {
	TotalGrants  int           `json:"total_grants"`
	ActiveGrants int           `json:"active_grants"`
	Revenue      []money.Money `json:"revenue"`
}

// listEntriesHandler godoc
// @Summary Listar entries del ledger
// @Tags ledger
// @Produce json
// @Param content_id query string false "Filtrar por contenido"
// @Param user_id query string false "Filtrar por usuario"
// @Param tier query string false "Filtrar por tier"
// @Param from query string false "recorded_at mínimo, inclusivo (RFC3339)"
// @Param to query string false "recorded_at máximo, exclusivo (RFC3339)"
// @Param currency query string false "Moneda"
// @Param min_amount query string false "Precio mínimo en unidades mayores (ej: 5.00)"
// @Param limit query int false "Máximo de entries (1-500). Por defecto 100"
// @Success 200 {array} EntryResponse
// @Failure 400 {string} string "invalid query"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /ledger/entries [get]
func listEntriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.Limit = 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				q.Limit = n
			}
		}

		items, err := svc.List(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]EntryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revenueHandler godoc
// @Summary Revenue agregado
// @Description Suma computed_price de las entries que matchean los filtros. Mezclar monedas sin `currency` es 400.
// @Tags ledger
// @Produce json
// @Param content_id query string false "Filtrar por contenido"
// @Param user_id query string false "Filtrar por usuario"
// @Param tier query string false "Filtrar por tier"
// @Param from query string false "recorded_at mínimo, inclusivo (RFC3339)"
// @Param to query string false "recorded_at máximo, exclusivo (RFC3339)"
// @Param currency query string false "Moneda"
// @Success 200 {object} RevenueResponse
// @Failure 400 {string} string "invalid query"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /ledger/revenue [get]
func revenueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		total, err := svc.Aggregate(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RevenueResponse{Total: total})
	}
}

// getByGrantHandler godoc
// @Summary Entry de un grant
// @Tags ledger
// @Produce json
// @Param grantID path string true "ID del grant"
// @Success 200 {object} EntryResponse
// @Failure 404 {string} string "not found"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /ledger/grants/{grantID} [get]
func getByGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetByGrant(r.Context(), chi.URLParam(r, "grantID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryResponse(e))
	}
}

// statsHandler godoc
// @Summary Estadísticas de acceso
// @Description Grants totales, grants activos y revenue por moneda.
// @Tags ledger
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /stats [get]
func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{
			TotalGrants:  st.TotalGrants,
			ActiveGrants: st.ActiveGrants,
			Revenue:      st.Revenue,
		})
	}
}

func parseQuery(r *http.Request) (Query, error) {
	v := r.URL.Query()
	q := Query{
		ContentID: strings.TrimSpace(v.Get("content_id")),
		UserID:    strings.TrimSpace(v.Get("user_id")),
		TierName:  strings.TrimSpace(v.Get("tier")),
		Currency:  strings.TrimSpace(v.Get("currency")),
	}

	if s := strings.TrimSpace(v.Get("from")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Query{}, errors.New("from must be RFC3339")
		}
		q.From = &t
	}
	if s := strings.TrimSpace(v.Get("to")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Query{}, errors.New("to must be RFC3339")
		}
		q.To = &t
	}

	if s := strings.TrimSpace(v.Get("min_amount")); s != "" {
		cur := q.Currency
		if cur == "" {
			cur = money.DefaultCurrency
		}
		minPrice, err := money.ParseMajor(s, cur)
		if err != nil {
			return Query{}, errors.New("min_amount must be a non-negative decimal")
		}
		q.Where = func(e Entry) bool {
			return e.ComputedPrice.Decimal().GreaterThanOrEqual(minPrice.Decimal())
		}
	}
	return q, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		GrantID:       e.GrantID,
		UserID:        e.UserID,
		ContentID:     e.ContentID,
		Tier:          e.TierName,
		ComputedPrice: e.ComputedPrice,
		RecordedAt:    e.RecordedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
