package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-gate/internal/platform/logger"
	"content-gate/internal/platform/money"
	"content-gate/internal/ports/engagement"
)

var (
	ErrUnknownContent     = errors.New("unknown content")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRefreshUnavailable = errors.New("no engagement source configured")
	ErrRefreshFailed      = errors.New("demand refresh failed")
)

const DefaultRefreshTimeout = 3 * time.Second

type Service struct {
	repo    Repository
	source  engagement.Source // puede ser nil
	log     logger.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewService(repo Repository, source engagement.Source, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:    repo,
		source:  source,
		log:     log.With(map[string]any{"component": "pricing"}),
		now:     time.Now,
		timeout: DefaultRefreshTimeout,
	}
}

// SetRefreshTimeout acota la llamada al engagement source.
func (s *Service) SetRefreshTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

type RegisterInput struct {
	ContentID   string
	BasePrice   money.Money
	PublishedAt time.Time // zero => now
}

// Register crea el signal (demand=0) o actualiza base price y publishedAt
// de uno existente, conservando el demand score.
func (s *Service) Register(ctx context.Context, in RegisterInput) (ContentSignal, error) {
	contentID := strings.TrimSpace(in.ContentID)
	if contentID == "" {
		return ContentSignal{}, ErrInvalidInput
	}

	base := in.BasePrice
	if base.IsNegative() {
		base = money.Zero(base.Currency)
	}

	now := s.now()
	published := in.PublishedAt
	if published.IsZero() {
		published = now
	}

	return s.repo.Update(ctx, contentID, func(cur ContentSignal, exists bool) (ContentSignal, error) {
		if !exists {
			cur = ContentSignal{ContentID: contentID}
		}
		cur.BasePrice = base
		cur.PublishedAt = published
		cur.DemandScore = ClampDemand(cur.DemandScore)
		cur.UpdatedAt = now
		return cur, nil
	})
}

func (s *Service) Get(ctx context.Context, contentID string) (ContentSignal, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return ContentSignal{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, contentID)
}

// ComputePrice: precio actual del contenido. ErrUnknownContent si nunca se
// registró un base price.
func (s *Service) ComputePrice(ctx context.Context, contentID string) (money.Money, error) {
	q, err := s.Quote(ctx, contentID)
	if err != nil {
		return money.Money{}, err
	}
	return q.Price, nil
}

// Quote igual que ComputePrice pero con el desglose.
func (s *Service) Quote(ctx context.Context, contentID string) (Quote, error) {
	sig, err := s.Get(ctx, contentID)
	if err != nil {
		return Quote{}, err
	}
	return ComputeQuote(sig, s.now()), nil
}

// PriceOrRegister calcula el precio; si el contenido no tiene signal lo crea
// con fallbackBase como base price, demand=0 y publishedAt=now.
// Lo usa la emisión de grants: el tier aporta el base price por defecto.
func (s *Service) PriceOrRegister(ctx context.Context, contentID string, fallbackBase money.Money) (money.Money, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return money.Money{}, ErrInvalidInput
	}

	sig, err := s.repo.Get(ctx, contentID)
	if errors.Is(err, ErrUnknownContent) {
		now := s.now()
		sig, err = s.repo.Update(ctx, contentID, func(cur ContentSignal, exists bool) (ContentSignal, error) {
			if exists {
				// otro request lo creó entre el Get y el Update
				return cur, nil
			}
			return ContentSignal{
				ContentID:   contentID,
				PublishedAt: now,
				DemandScore: 0,
				BasePrice:   fallbackBase,
				UpdatedAt:   now,
			}, nil
		})
		if err == nil {
			s.log.Info("content signal created from tier base price", map[string]any{
				"content_id": contentID,
				"base_price": fallbackBase.FormatMajor(),
			})
		}
	}
	if err != nil {
		return money.Money{}, err
	}
	return ComputeQuote(sig, s.now()).Price, nil
}

// UpdateDemand fija el demand score (clampado a [0,1]).
func (s *Service) UpdateDemand(ctx context.Context, contentID string, score float64) (ContentSignal, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return ContentSignal{}, ErrInvalidInput
	}
	now := s.now()
	return s.repo.Update(ctx, contentID, func(cur ContentSignal, exists bool) (ContentSignal, error) {
		if !exists {
			return ContentSignal{}, ErrUnknownContent
		}
		cur.DemandScore = ClampDemand(score)
		cur.UpdatedAt = now
		return cur, nil
	})
}

// Refresh consulta el engagement source con timeout. Si la llamada falla o
// vence, el signal previo queda intacto.
func (s *Service) Refresh(ctx context.Context, contentID string) (ContentSignal, error) {
	if s.source == nil {
		return ContentSignal{}, ErrRefreshUnavailable
	}
	prev, err := s.Get(ctx, contentID)
	if err != nil {
		return ContentSignal{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	score, err := s.source.DemandScore(cctx, prev.ContentID)
	if err == nil {
		err = cctx.Err()
	}
	if err != nil {
		s.log.Warn("demand refresh failed, keeping previous signal", map[string]any{
			"content_id": prev.ContentID,
			"demand":     prev.DemandScore,
			"err":        err,
		})
		return prev, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	return s.UpdateDemand(ctx, prev.ContentID, score)
}

func (s *Service) List(ctx context.Context) ([]ContentSignal, error) {
	return s.repo.List(ctx)
}
