package pricing

import (
	"math"
	"time"

	"content-gate/internal/platform/money"

	"github.com/shopspring/decimal"
)

var (
	demandWeight = decimal.RequireFromString("0.5")

	freshBoost  = decimal.RequireFromString("0.3") // age < 24h
	recentBoost = decimal.RequireFromString("0.1") // age < 7d
)

const (
	freshWindow  = 24 * time.Hour
	recentWindow = 7 * 24 * time.Hour
)

// ClampDemand lleva cualquier valor upstream a [0,1]. NaN cuenta como 0.
func ClampDemand(d float64) float64 {
	switch {
	case math.IsNaN(d), d < 0:
		return 0
	case d > 1:
		return 1
	default:
		return d
	}
}

// DemandMultiplier: d * 0.5 (demanda 1.0 => +50%).
func DemandMultiplier(d float64) decimal.Decimal {
	return decimal.NewFromFloat(ClampDemand(d)).Mul(demandWeight)
}

// FreshnessMultiplier es escalonado y decreciente; intervalos semiabiertos:
// age < 24h => +0.3, age < 7d => +0.1, si no 0.
// Edades negativas (publishedAt futuro) cuentan como 0.
func FreshnessMultiplier(age time.Duration) decimal.Decimal {
	if age < 0 {
		age = 0
	}
	switch {
	case age < freshWindow:
		return freshBoost
	case age < recentWindow:
		return recentBoost
	default:
		return decimal.Zero
	}
}

// ComputeQuote es puro: mismo signal + mismo instante => mismo precio.
// price = base * (1 + demand + freshness), redondeado half-up a 2 decimales.
func ComputeQuote(s ContentSignal, at time.Time) Quote {
	age := at.Sub(s.PublishedAt)
	dm := DemandMultiplier(s.DemandScore)
	fm := FreshnessMultiplier(age)

	factor := decimal.NewFromInt(1).Add(dm).Add(fm)
	price := money.FromDecimal(s.BasePrice.Decimal().Mul(factor), s.BasePrice.Currency)

	return Quote{
		ContentID:           s.ContentID,
		BasePrice:           s.BasePrice,
		DemandScore:         ClampDemand(s.DemandScore),
		DemandMultiplier:    dm,
		FreshnessMultiplier: fm,
		Age:                 age,
		Price:               price,
		ComputedAt:          at,
	}
}
