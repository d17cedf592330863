package ledger

import (
	"context"
	"time"
)

// Appender es la única escritura del ledger. Devuelve ErrDuplicateGrant si
// ya existe una entry para ese GrantID.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

type Repository interface {
	Appender

	// ListEntries aplica los filtros de columna (ContentID, UserID, TierName,
	// From, To, Currency, Limit). Where lo evalúa el Service.
	ListEntries(ctx context.Context, q Query) ([]Entry, error)
	GetByGrant(ctx context.Context, grantID string) (Entry, error)
}

// GrantCounter lo implementa el store de grants; alimenta Stats.
type GrantCounter interface {
	CountGrants(ctx context.Context, activeAt time.Time) (total int, active int, err error)
}
