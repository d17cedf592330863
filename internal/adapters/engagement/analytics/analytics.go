// Package analytics trae el demand score de un contenido desde el servicio
// de engagement.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"content-gate/internal/platform/httpclient"
	"content-gate/internal/ports/engagement"
)

var (
	ErrNotConfigured = errors.New("analytics client not configured")
	ErrBadScore      = errors.New("analytics returned a non-numeric demand score")
)

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

var _ engagement.Source = (*Client)(nil)

type engagementResponse struct {
	DemandScore *float64 `json:"demand_score"`
}

// DemandScore devuelve el valor crudo; el clamp a [0,1] lo hace pricing.
func (c *Client) DemandScore(ctx context.Context, contentID string) (float64, error) {
	if c == nil || !c.http.IsConfigured() {
		return 0, ErrNotConfigured
	}

	var out engagementResponse
	path := "/v1/contents/" + url.PathEscape(contentID) + "/engagement"
	if err := c.http.DoJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return 0, fmt.Errorf("analytics: %w", err)
	}
	if out.DemandScore == nil || math.IsNaN(*out.DemandScore) || math.IsInf(*out.DemandScore, 0) {
		return 0, ErrBadScore
	}
	return *out.DemandScore, nil
}
