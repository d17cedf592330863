package accessgrants

import (
	"time"

	"content-gate/internal/domain/tiers"
)

// CheckAccess elige, entre los candidatos del usuario para el contenido,
// el grant vigente más reciente (IssuedAt mayor; empate: ID mayor).
// Sin candidatos vigentes devuelve Decision{Allowed: false}.
func CheckAccess(userID, contentID string, candidates []Grant, now time.Time) Decision {
	return pick(userID, contentID, candidates, now, nil)
}

// CheckAccessForTier igual que CheckAccess, pero el tier del grant tiene que
// cubrir a required.
func CheckAccessForTier(userID, contentID string, required tiers.Tier, candidates []Grant, now time.Time) Decision {
	return pick(userID, contentID, candidates, now, func(g Grant) bool {
		return g.Tier.Covers(required)
	})
}

func pick(userID, contentID string, candidates []Grant, now time.Time, accept func(Grant) bool) Decision {
	var (
		best  Grant
		found bool
	)
	for _, g := range candidates {
		if g.UserID != userID || g.ContentID != contentID {
			continue
		}
		if !g.ActiveAt(now) {
			continue
		}
		if accept != nil && !accept(g) {
			continue
		}
		if !found || newer(g, best) {
			best, found = g, true
		}
	}
	if !found {
		return Decision{}
	}
	return Decision{Allowed: true, Grant: best}
}

func newer(a, b Grant) bool {
	if !a.IssuedAt.Equal(b.IssuedAt) {
		return a.IssuedAt.After(b.IssuedAt)
	}
	return a.ID > b.ID
}
