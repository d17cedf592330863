package ledger

import (
	"time"

	"content-gate/internal/platform/money"
)

// Entry es append-only: una por grant, nunca se edita ni se borra.
// UserID/ContentID/TierName se desnormalizan desde el grant para poder
// agregar sin joins.
type Entry struct {
	ID            string
	GrantID       string
	UserID        string
	ContentID     string
	TierName      string
	ComputedPrice money.Money
	RecordedAt    time.Time
}

// GrantRecord es lo mínimo que el ledger necesita de un grant.
// accessgrants depende de ledger, no al revés.
type GrantRecord struct {
	GrantID   string
	UserID    string
	ContentID string
	TierName  string
	Price     money.Money
}

// Query filtra entries para Aggregate/List. Campos vacíos no filtran.
// From es inclusivo y To exclusivo (sobre RecordedAt).
type Query struct {
	ContentID string
	UserID    string
	TierName  string
	From      *time.Time
	To        *time.Time

	// Currency restringe la suma a una moneda. Vacío: todas las entries
	// deben compartir moneda o la query es inválida.
	Currency string

	// Where es un predicado adicional, evaluado en memoria.
	Where func(Entry) bool

	Limit int
}

func (q Query) Matches(e Entry) bool {
	if q.ContentID != "" && e.ContentID != q.ContentID {
		return false
	}
	if q.UserID != "" && e.UserID != q.UserID {
		return false
	}
	if q.TierName != "" && e.TierName != q.TierName {
		return false
	}
	if q.From != nil && e.RecordedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && !e.RecordedAt.Before(*q.To) {
		return false
	}
	if q.Currency != "" && e.ComputedPrice.Currency != q.Currency {
		return false
	}
	if q.Where != nil && !q.Where(e) {
		return false
	}
	return true
}

type Stats struct {
	TotalGrants  int
	ActiveGrants int
	Revenue      []money.Money // una por moneda, ordenadas
}
