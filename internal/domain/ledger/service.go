package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"content-gate/internal/platform/logger"
	"content-gate/internal/platform/money"

	"github.com/google/uuid"
)

var (
	ErrDuplicateGrant = errors.New("ledger entry already exists for grant")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
)

// Record arma la entry y la agrega con a. Se usa tanto desde el Service
// como dentro de la transacción de emisión de grants (a = tx).
func Record(ctx context.Context, a Appender, r GrantRecord, at time.Time) (Entry, error) {
	if strings.TrimSpace(r.GrantID) == "" {
		return Entry{}, ErrInvalidInput
	}
	if r.Price.IsNegative() {
		return Entry{}, fmt.Errorf("%w: negative price", ErrInvalidInput)
	}

	e := Entry{
		ID:            uuid.NewString(),
		GrantID:       r.GrantID,
		UserID:        r.UserID,
		ContentID:     r.ContentID,
		TierName:      r.TierName,
		ComputedPrice: r.Price,
		RecordedAt:    at,
	}
	if err := a.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

type Service struct {
	repo     Repository
	grants   GrantCounter // opcional, sólo para Stats
	currency string
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, grants GrantCounter, currency string, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if strings.TrimSpace(currency) == "" {
		currency = money.DefaultCurrency
	}
	return &Service{
		repo:     repo,
		grants:   grants,
		currency: strings.ToLower(strings.TrimSpace(currency)),
		log:      log.With(map[string]any{"component": "ledger"}),
		now:      time.Now,
	}
}

func (s *Service) Record(ctx context.Context, r GrantRecord) (Entry, error) {
	e, err := Record(ctx, s.repo, r, s.now())
	if err != nil {
		return Entry{}, err
	}
	s.log.Debug("ledger entry recorded", map[string]any{
		"entry_id": e.ID,
		"grant_id": e.GrantID,
		"price":    e.ComputedPrice.String(),
	})
	return e, nil
}

func (s *Service) GetByGrant(ctx context.Context, grantID string) (Entry, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Entry{}, ErrInvalidInput
	}
	return s.repo.GetByGrant(ctx, grantID)
}

// List devuelve las entries que matchean q, ordenadas por RecordedAt.
func (s *Service) List(ctx context.Context, q Query) ([]Entry, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if q.Where != nil {
		// el límite se aplica después del predicado
		q.Limit = 0
	}

	items, err := s.repo.ListEntries(ctx, q)
	if err != nil {
		return nil, err
	}

	if q.Where != nil {
		filtered := make([]Entry, 0, len(items))
		for _, e := range items {
			if q.Where(e) {
				filtered = append(filtered, e)
			}
		}
		items = filtered
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Aggregate suma ComputedPrice sobre las entries que matchean q.
// Sin Currency, mezclar monedas es ErrInvalidQuery.
func (s *Service) Aggregate(ctx context.Context, q Query) (money.Money, error) {
	q.Limit = 0
	items, err := s.List(ctx, q)
	if err != nil {
		return money.Money{}, err
	}

	cur := q.Currency
	if cur == "" {
		cur = s.currency
		if len(items) > 0 {
			cur = items[0].ComputedPrice.Currency
		}
	}
	total := money.Zero(cur)
	for _, e := range items {
		total, err = total.Add(e.ComputedPrice)
		if err != nil {
			return money.Money{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}
	return total, nil
}

// Stats: grants totales/activos y revenue por moneda.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if s.grants != nil {
		total, active, err := s.grants.CountGrants(ctx, s.now())
		if err != nil {
			return Stats{}, err
		}
		st.TotalGrants, st.ActiveGrants = total, active
	}

	items, err := s.repo.ListEntries(ctx, Query{})
	if err != nil {
		return Stats{}, err
	}

	byCur := map[string]money.Money{}
	for _, e := range items {
		c := e.ComputedPrice.Currency
		acc, ok := byCur[c]
		if !ok {
			acc = money.Zero(c)
		}
		byCur[c], _ = acc.Add(e.ComputedPrice)
	}
	if len(byCur) == 0 {
		byCur[s.currency] = money.Zero(s.currency)
	}
	for _, m := range byCur {
		st.Revenue = append(st.Revenue, m)
	}
	sort.Slice(st.Revenue, func(i, j int) bool { return st.Revenue[i].Currency < st.Revenue[j].Currency })
	return st, nil
}

func normalizeQuery(q Query) (Query, error) {
	q.ContentID = strings.TrimSpace(q.ContentID)
	q.UserID = strings.TrimSpace(q.UserID)
	q.TierName = strings.TrimSpace(q.TierName)
	q.Currency = strings.ToLower(strings.TrimSpace(q.Currency))

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return Query{}, fmt.Errorf("%w: from after to", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return Query{}, fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return q, nil
}
