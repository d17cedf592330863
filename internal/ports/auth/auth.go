package auth

import "context"

// Claims: identidad del lector (o del agente que actúa por él) extraída del token.
type Claims struct {
	UserID      string
	Email       string
	PublisherID string // tenant/publisher dueño del contenido, si aplica
}

// AuthVerifier verifica un bearer token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
