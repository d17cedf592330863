package accessgrants

import (
	"time"

	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/money"
)

// Grant se crea una sola vez y nunca se modifica. Un grant vencido
// (now >= ExpiresAt) cuenta como ausente pero se conserva para auditoría.
type Grant struct {
	ID string

	UserID    string
	ContentID string

	// Tier es una copia del tier al momento de emitir.
	Tier tiers.Tier

	IssuedAt  time.Time
	ExpiresAt time.Time

	// Price queda fijo en la emisión.
	Price money.Money
}

func (g Grant) ActiveAt(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// Decision: Allowed=false es un resultado normal, no un error.
type Decision struct {
	Allowed bool
	Grant   Grant
}
