package pricing

import (
	"time"

	"content-gate/internal/platform/money"

	"github.com/shopspring/decimal"
)

// ContentSignal es el estado mutable por contenido que alimenta el precio.
// DemandScore siempre queda en [0,1].
type ContentSignal struct {
	ContentID   string
	PublishedAt time.Time
	DemandScore float64
	BasePrice   money.Money
	UpdatedAt   time.Time
}

// Quote es el desglose de un cálculo de precio en un instante dado.
type Quote struct {
	ContentID           string
	BasePrice           money.Money
	DemandScore         float64
	DemandMultiplier    decimal.Decimal
	FreshnessMultiplier decimal.Decimal
	Age                 time.Duration
	Price               money.Money
	ComputedAt          time.Time
}
