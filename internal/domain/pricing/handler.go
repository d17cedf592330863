package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"content-gate/internal/middleware"
	"content-gate/internal/platform/money"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta la administración de signals y la cotización.
// currency es la moneda por defecto para base_price sin moneda explícita.
// Cotizar y listar es público; escribir signals exige un publisher.
func RegisterRoutes(r chi.Router, svc *Service, currency string) {
	r.Route("/contents", func(cr chi.Router) {
		cr.Get("/", listSignalsHandler(svc))
		cr.Get("/{contentID}/price", quoteHandler(svc))

		cr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequirePublisher)
			ar.Put("/{contentID}", registerContentHandler(svc, currency))
			ar.Post("/{contentID}/demand", updateDemandHandler(svc))
			ar.Post("/{contentID}/refresh", refreshHandler(svc))
		})
	})
}

type registerContentRequest struct {
	BasePrice   string     `json:"base_price"`
	Currency    string     `json:"currency,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type updateDemandRequest struct {
	DemandScore *float64 `json:"demand_score"`
}

type SignalResponse struct {
	ContentID   string      `json:"content_id"`
	BasePrice   money.Money `json:"base_price"`
	DemandScore float64     `json:"demand_score"`
	PublishedAt time.Time   `json:"published_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type QuoteResponse struct {
	ContentID           string      `json:"content_id"`
	BasePrice           money.Money `json:"base_price"`
	DemandScore         float64     `json:"demand_score"`
	DemandMultiplier    string      `json:"demand_multiplier"`
	FreshnessMultiplier string      `json:"freshness_multiplier"`
	AgeSeconds          int64       `json:"age_seconds"`
	Price               money.Money `json:"price"`
	ComputedAt          time.Time   `json:"computed_at"`
}

// registerContentHandler godoc
// @Summary Registrar contenido
// @Description Crea o actualiza base price y fecha de publicación. El demand score existente se conserva.
// @Tags pricing
// @Accept json
// @Produce json
// @Param contentID path string true "ID del contenido"
// @Success 200 {object} SignalResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /contents/{contentID} [put]
func registerContentHandler(svc *Service, currency string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		cur := currency
		if strings.TrimSpace(req.Currency) != "" {
			cur = req.Currency
		}
		base, err := money.ParseMajor(req.BasePrice, cur)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		in := RegisterInput{ContentID: chi.URLParam(r, "contentID"), BasePrice: base}
		if req.PublishedAt != nil {
			in.PublishedAt = *req.PublishedAt
		}

		sig, err := svc.Register(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSignalResponse(sig))
	}
}

// quoteHandler godoc
// @Summary Cotizar contenido
// @Tags pricing
// @Produce json
// @Param contentID path string true "ID del contenido"
// @Success 200 {object} QuoteResponse
// @Failure 404 {string} string "unknown content"
// @Router /contents/{contentID}/price [get]
func quoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.Quote(r.Context(), chi.URLParam(r, "contentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQuoteResponse(q))
	}
}

// updateDemandHandler godoc
// @Summary Fijar demand score
// @Description El valor se clampa a [0,1].
// @Tags pricing
// @Accept json
// @Produce json
// @Param contentID path string true "ID del contenido"
// @Success 200 {object} SignalResponse
// @Failure 404 {string} string "unknown content"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /contents/{contentID}/demand [post]
func updateDemandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateDemandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.DemandScore == nil {
			http.Error(w, "demand_score required", http.StatusBadRequest)
			return
		}

		sig, err := svc.UpdateDemand(r.Context(), chi.URLParam(r, "contentID"), *req.DemandScore)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSignalResponse(sig))
	}
}

// refreshHandler godoc
// @Summary Refrescar demand desde analytics
// @Tags pricing
// @Produce json
// @Param contentID path string true "ID del contenido"
// @Success 200 {object} SignalResponse
// @Failure 502 {string} string "demand refresh failed"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "publisher required"
// @Router /contents/{contentID}/refresh [post]
func refreshHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sig, err := svc.Refresh(r.Context(), chi.URLParam(r, "contentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSignalResponse(sig))
	}
}

// listSignalsHandler godoc
// @Summary Listar signals
// @Tags pricing
// @Produce json
// @Success 200 {array} SignalResponse
// @Router /contents [get]
func listSignalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]SignalResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toSignalResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownContent):
		http.Error(w, "unknown content", http.StatusNotFound)
	case errors.Is(err, ErrRefreshUnavailable):
		http.Error(w, err.Error(), http.StatusNotImplemented)
	case errors.Is(err, ErrRefreshFailed):
		http.Error(w, "demand refresh failed", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSignalResponse(s ContentSignal) SignalResponse {
	return SignalResponse{
		ContentID:   s.ContentID,
		BasePrice:   s.BasePrice,
		DemandScore: s.DemandScore,
		PublishedAt: s.PublishedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toQuoteResponse(q Quote) QuoteResponse {
	return QuoteResponse{
		ContentID:           q.ContentID,
		BasePrice:           q.BasePrice,
		DemandScore:         q.DemandScore,
		DemandMultiplier:    q.DemandMultiplier.String(),
		FreshnessMultiplier: q.FreshnessMultiplier.String(),
		AgeSeconds:          int64(q.Age / time.Second),
		Price:               q.Price,
		ComputedAt:          q.ComputedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
