package accessgrants

import (
	"context"

	"content-gate/internal/domain/ledger"
)

// Tx es la vista transaccional del store: el grant y su entry de ledger se
// escriben juntos o no se escribe nada.
type Tx interface {
	Create(ctx context.Context, g Grant) error
	ledger.Appender
}

type Repository interface {
	// WithinTx confirma sólo si fn devuelve nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetByID(ctx context.Context, id string) (Grant, error)
	ListByUser(ctx context.Context, userID string) ([]Grant, error)
	ListByUserContent(ctx context.Context, userID, contentID string) ([]Grant, error)
}
