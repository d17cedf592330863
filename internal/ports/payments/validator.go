package payments

import (
	"context"
	"errors"

	"content-gate/internal/platform/money"
)

var ErrRejected = errors.New("payment rejected")

// Check es lo que se le pide validar al procesador de pagos antes de emitir un grant.
type Check struct {
	Token     string
	UserID    string
	ContentID string
	Amount    money.Money
}

// Validator valida un payment token contra el procesador.
// Devuelve ErrRejected (posiblemente envuelto) si el pago no es válido.
type Validator interface {
	Validate(ctx context.Context, in Check) error
}
