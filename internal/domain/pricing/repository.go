package pricing

import "context"

// UpdateFunc recibe el estado actual (exists=false si no hay fila) y devuelve
// el nuevo estado. Si devuelve error, no se escribe nada.
type UpdateFunc func(cur ContentSignal, exists bool) (ContentSignal, error)

type Repository interface {
	// Get devuelve ErrUnknownContent si no hay signal para el contenido.
	Get(ctx context.Context, contentID string) (ContentSignal, error)

	// Update hace read-modify-write atómico por contentID (lock por clave,
	// transacción o WATCH según el store). Dos updates concurrentes del mismo
	// contenido nunca se pisan.
	Update(ctx context.Context, contentID string, fn UpdateFunc) (ContentSignal, error)

	List(ctx context.Context) ([]ContentSignal, error)
}
