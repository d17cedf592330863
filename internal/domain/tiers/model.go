package tiers

import (
	"sort"
	"strings"

	"content-gate/internal/platform/money"
)

// Tier es un nivel de acceso con su set de features y precio base.
// Inmutable una vez registrado en el Catalog.
type Tier struct {
	Name        string
	Description string
	Features    []string // set: ordenado y sin duplicados
	BasePrice   money.Money
}

// HasFeature responde si el tier incluye la feature.
func (t Tier) HasFeature(feature string) bool {
	i := sort.SearchStrings(t.Features, feature)
	return i < len(t.Features) && t.Features[i] == feature
}

// Covers: t incluye todas las features de other (un grant "enterprise"
// satisface un pedido "premium" si sus features son superset).
func (t Tier) Covers(other Tier) bool {
	if t.Name == other.Name {
		return true
	}
	for _, f := range other.Features {
		if !t.HasFeature(f) {
			return false
		}
	}
	return true
}

func (t Tier) clone() Tier {
	out := t
	out.Features = append([]string(nil), t.Features...)
	return out
}

func normalizeFeatures(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		f := strings.TrimSpace(raw)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
