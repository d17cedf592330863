package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/logger"
	"content-gate/internal/platform/money"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrIssuanceFailed  = errors.New("grant issuance failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrPriceChanged    = errors.New("price changed since quote")
)

// MaxDurationSeconds es el mayor valor que entra en un time.Duration.
const MaxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))

// Pricer lo implementa pricing.Service. Si el contenido no tiene signal,
// se registra con fallbackBase (el base price del tier).
type Pricer interface {
	PriceOrRegister(ctx context.Context, contentID string, fallbackBase money.Money) (money.Money, error)
}

type Service struct {
	repo    Repository
	catalog *tiers.Catalog
	pricer  Pricer
	log     logger.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(repo Repository, catalog *tiers.Catalog, pricer Pricer, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		pricer:  pricer,
		log:     log.With(map[string]any{"component": "accessgrants"}),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Now es el reloj del servicio; los handlers lo usan para marcar grants activos.
func (s *Service) Now() time.Time { return s.now() }

type IssueInput struct {
	UserID          string
	ContentID       string
	TierName        string
	DurationSeconds int64

	// QuotedPrice, si no es nil, es el monto ya cobrado; si el precio
	// recalculado difiere, no se emite (ErrPriceChanged).
	QuotedPrice *money.Money
}

// ValidateIssue rechaza lo que IssueGrant nunca emitiría, sin tocar pricing
// ni pagos. Los handlers la llaman antes de cotizar y cobrar.
func (s *Service) ValidateIssue(in IssueInput) error {
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.ContentID) == "" {
		return ErrInvalidInput
	}
	if in.DurationSeconds <= 0 {
		return ErrInvalidDuration
	}
	if in.DurationSeconds > MaxDurationSeconds {
		return fmt.Errorf("%w: exceeds %d seconds", ErrInvalidDuration, MaxDurationSeconds)
	}
	_, err := s.catalog.Lookup(in.TierName)
	return err
}

// Quote devuelve el precio que tendría un grant emitido ahora.
func (s *Service) Quote(ctx context.Context, contentID, tierName string) (money.Money, tiers.Tier, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return money.Money{}, tiers.Tier{}, ErrInvalidInput
	}
	tier, err := s.catalog.Lookup(tierName)
	if err != nil {
		return money.Money{}, tiers.Tier{}, err
	}
	price, err := s.pricer.PriceOrRegister(ctx, contentID, tier.BasePrice)
	if err != nil {
		return money.Money{}, tiers.Tier{}, err
	}
	return price, tier, nil
}

// IssueGrant emite un grant nuevo (no es idempotente) y su entry de ledger
// en la misma transacción. Cualquier falla de escritura es ErrIssuanceFailed
// y no deja rastro en ningún store.
func (s *Service) IssueGrant(ctx context.Context, in IssueInput) (Grant, error) {
	if err := s.ValidateIssue(in); err != nil {
		return Grant{}, err
	}
	userID := strings.TrimSpace(in.UserID)
	contentID := strings.TrimSpace(in.ContentID)
	duration := time.Duration(in.DurationSeconds) * time.Second

	price, tier, err := s.Quote(ctx, contentID, in.TierName)
	if err != nil {
		return Grant{}, err
	}
	if in.QuotedPrice != nil && !price.Equal(*in.QuotedPrice) {
		s.log.Warn("price changed between quote and issuance", map[string]any{
			"user_id":    userID,
			"content_id": contentID,
			"quoted":     in.QuotedPrice.String(),
			"price":      price.String(),
		})
		return Grant{}, fmt.Errorf("%w: %w: quoted %s, now %s", ErrIssuanceFailed, ErrPriceChanged, in.QuotedPrice, price)
	}

	now := s.now()
	g := Grant{
		ID:        s.newID(),
		UserID:    userID,
		ContentID: contentID,
		Tier:      tier,
		IssuedAt:  now,
		ExpiresAt: now.Add(duration),
		Price:     price,
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Create(ctx, g); err != nil {
			return err
		}
		_, err := ledger.Record(ctx, tx, ledger.GrantRecord{
			GrantID:   g.ID,
			UserID:    g.UserID,
			ContentID: g.ContentID,
			TierName:  g.Tier.Name,
			Price:     g.Price,
		}, now)
		return err
	})
	if err != nil {
		s.log.Error("grant issuance failed", map[string]any{
			"grant_id":   g.ID,
			"user_id":    g.UserID,
			"content_id": g.ContentID,
			"err":        err,
		})
		return Grant{}, fmt.Errorf("%w: %w", ErrIssuanceFailed, err)
	}

	s.log.Info("grant issued", map[string]any{
		"grant_id":   g.ID,
		"user_id":    g.UserID,
		"content_id": g.ContentID,
		"tier":       g.Tier.Name,
		"price":      g.Price.String(),
		"expires_at": g.ExpiresAt,
	})
	return g, nil
}

// CheckAccess busca los grants del usuario para el contenido y decide.
func (s *Service) CheckAccess(ctx context.Context, userID, contentID string) (Decision, error) {
	candidates, err := s.candidates(ctx, userID, contentID)
	if err != nil {
		return Decision{}, err
	}
	return CheckAccess(strings.TrimSpace(userID), strings.TrimSpace(contentID), candidates, s.now()), nil
}

// CheckAccessForTier exige además que el tier del grant cubra a tierName.
func (s *Service) CheckAccessForTier(ctx context.Context, userID, contentID, tierName string) (Decision, error) {
	required, err := s.catalog.Lookup(tierName)
	if err != nil {
		return Decision{}, err
	}
	candidates, err := s.candidates(ctx, userID, contentID)
	if err != nil {
		return Decision{}, err
	}
	return CheckAccessForTier(strings.TrimSpace(userID), strings.TrimSpace(contentID), required, candidates, s.now()), nil
}

func (s *Service) candidates(ctx context.Context, userID, contentID string) ([]Grant, error) {
	userID = strings.TrimSpace(userID)
	contentID = strings.TrimSpace(contentID)
	if userID == "" || contentID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUserContent(ctx, userID, contentID)
}

// Get devuelve el grant sólo a su dueño.
func (s *Service) Get(ctx context.Context, grantID, userID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, err
	}
	if g.UserID != strings.TrimSpace(userID) {
		return Grant{}, ErrForbidden
	}
	return g, nil
}

// ListByUser devuelve los grants del usuario, más recientes primero.
// activeOnly descarta los vencidos.
func (s *Service) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Grant, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if activeOnly {
		now := s.now()
		filtered := make([]Grant, 0, len(items))
		for _, g := range items {
			if g.ActiveAt(now) {
				filtered = append(filtered, g)
			}
		}
		items = filtered
	}

	sort.Slice(items, func(i, j int) bool { return newer(items[i], items[j]) })
	return items, nil
}
