package engagement

import "context"

// Source provee el demand score de un contenido (analytics / predicción externa).
// El valor debería estar en [0,1]; el motor de precios lo clampa igual.
type Source interface {
	DemandScore(ctx context.Context, contentID string) (float64, error)
}
