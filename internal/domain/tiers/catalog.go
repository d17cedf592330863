package tiers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"content-gate/internal/platform/money"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownTier   = errors.New("unknown tier")
	ErrDuplicateTier = errors.New("duplicate tier")
	ErrInvalidTier   = errors.New("invalid tier")
)

// Catalog es configuración de solo lectura: se construye una vez al arrancar
// y se inyecta a los servicios. No hay catálogo global.
type Catalog struct {
	ordered []Tier
	byName  map[string]int
}

// NewCatalog valida nombres únicos y precios no negativos.
// El orden de definición se conserva en List().
func NewCatalog(defs []Tier) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]Tier, 0, len(defs)),
		byName:  make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidTier)
		}
		if d.BasePrice.IsNegative() {
			return nil, fmt.Errorf("%w: %s has negative base price", ErrInvalidTier, name)
		}
		if _, exists := c.byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTier, name)
		}

		t := Tier{
			Name:        name,
			Description: strings.TrimSpace(d.Description),
			Features:    normalizeFeatures(d.Features),
			BasePrice:   d.BasePrice,
		}
		c.byName[name] = len(c.ordered)
		c.ordered = append(c.ordered, t)
	}
	return c, nil
}

// Lookup devuelve una copia del tier (el caller no puede mutar el catálogo).
func (c *Catalog) Lookup(name string) (Tier, error) {
	i, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return c.ordered[i].clone(), nil
}

// List en orden de definición.
func (c *Catalog) List() []Tier {
	out := make([]Tier, 0, len(c.ordered))
	for _, t := range c.ordered {
		out = append(out, t.clone())
	}
	return out
}

func (c *Catalog) Len() int { return len(c.ordered) }

// -------------------------
// Archivo YAML
// -------------------------

type fileTier struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	BasePrice   string   `yaml:"base_price"`
	Features    []string `yaml:"features"`
}

type catalogFile struct {
	Currency string     `yaml:"currency"`
	Tiers    []fileTier `yaml:"tiers"`
}

// Parse lee un catálogo YAML:
//
//	currency: usd
//	tiers:
//	  - name: premium
//	    base_price: "10.00"
//	    features: [articles, newsletter]
//
// defaultCurrency aplica si el archivo no define currency.
func Parse(data []byte, defaultCurrency string) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTier, err)
	}

	currency := strings.TrimSpace(f.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	defs := make([]Tier, 0, len(f.Tiers))
	for _, ft := range f.Tiers {
		price, err := money.ParseMajor(ft.BasePrice, currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTier, ft.Name, err)
		}
		defs = append(defs, Tier{
			Name:        ft.Name,
			Description: ft.Description,
			Features:    ft.Features,
			BasePrice:   price,
		})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: catalog has no tiers", ErrInvalidTier)
	}
	return NewCatalog(defs)
}

func LoadFile(path, defaultCurrency string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	return Parse(b, defaultCurrency)
}

// Default: free / premium / enterprise (planes por defecto del producto).
func Default(currency string) *Catalog {
	c, err := NewCatalog([]Tier{
		{
			Name:        "free",
			Description: "Access to public content",
			BasePrice:   money.Zero(currency),
			Features:    []string{"public_articles"},
		},
		{
			Name:        "premium",
			Description: "Full access to premium content",
			BasePrice:   money.New(999, currency),
			Features:    []string{"public_articles", "premium_articles", "ad_free", "early_access", "newsletter"},
		},
		{
			Name:        "enterprise",
			Description: "Enterprise-grade access with API",
			BasePrice:   money.New(9999, currency),
			Features: []string{
				"public_articles", "premium_articles", "ad_free", "early_access", "newsletter",
				"api_access", "priority_support", "analytics_dashboard",
			},
		},
	})
	if err != nil {
		panic(err) // definiciones fijas
	}
	return c
}
