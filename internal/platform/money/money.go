// Package money representa montos en la unidad mínima de la moneda (centavos).
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

const DefaultCurrency = "usd"

// Money guarda el monto como entero en unidades mínimas.
// Ej: Money{Amount: 1500, Currency: "usd"} = $15.00
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func New(minor int64, currency string) Money {
	return Money{Amount: minor, Currency: normalizeCurrency(currency)}
}

func Zero(currency string) Money { return New(0, currency) }

// FromDecimal convierte un monto en unidades mayores (ej: 15.005) a Money,
// redondeando half-up a los decimales de la moneda.
// Los montos negativos se llevan a cero: un precio nunca es negativo.
func FromDecimal(d decimal.Decimal, currency string) Money {
	if d.IsNegative() {
		d = decimal.Zero
	}
	places := int32(decimalsOf(currency))
	minor := d.Round(places).Shift(places).IntPart()
	return New(minor, currency)
}

// ParseMajor parsea "10.00" / "9.99" a Money.
func ParseMajor(s, currency string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d, currency), nil
}

// Decimal devuelve el monto en unidades mayores.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(decimalsOf(m.Currency)))
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor: "15.00" para New(1500, "usd"), "100" para New(100, "jpy").
func (m Money) FormatMajor() string {
	return m.Decimal().StringFixed(int32(decimalsOf(m.Currency)))
}

func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.FormatMajor(),
	})
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = New(raw.Amount, raw.Currency)
	return nil
}

func normalizeCurrency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "jpy":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func decimalsOf(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "clp", "pyg", "vnd":
		return 0
	default:
		return 2
	}
}
