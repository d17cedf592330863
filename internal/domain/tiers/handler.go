package tiers

import (
	"encoding/json"
	"errors"
	"net/http"

	"content-gate/internal/platform/money"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, catalog *Catalog) {
	r.Route("/tiers", func(tr chi.Router) {
		tr.Get("/", listTiersHandler(catalog))
		tr.Get("/{name}", getTierHandler(catalog))
	})
}

// TierResponse es la representación pública de un tier.
type TierResponse struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Features    []string    `json:"features"`
	BasePrice   money.Money `json:"base_price"`
}

func ToResponse(t Tier) TierResponse {
	features := t.Features
	if features == nil {
		features = []string{}
	}
	return TierResponse{
		Name:        t.Name,
		Description: t.Description,
		Features:    features,
		BasePrice:   t.BasePrice,
	}
}

// listTiersHandler godoc
// @Summary Listar tiers
// @Description Devuelve los tiers del catálogo en orden de definición.
// @Tags tiers
// @Produce json
// @Success 200 {array} TierResponse
// @Router /tiers [get]
func listTiersHandler(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := catalog.List()
		out := make([]TierResponse, 0, len(items))
		for _, t := range items {
			out = append(out, ToResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getTierHandler godoc
// @Summary Obtener tier
// @Tags tiers
// @Produce json
// @Param name path string true "Nombre del tier"
// @Success 200 {object} TierResponse
// @Failure 404 {string} string "unknown tier"
// @Router /tiers/{name} [get]
func getTierHandler(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := catalog.Lookup(chi.URLParam(r, "name"))
		if err != nil {
			if errors.Is(err, ErrUnknownTier) {
				http.Error(w, "unknown tier", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(t))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
