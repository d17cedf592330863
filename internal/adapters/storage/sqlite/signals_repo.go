package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"content-gate/internal/domain/pricing"
	"content-gate/internal/platform/money"
)

const signalColumns = `content_id, published_at, demand_score, base_amount, base_currency, updated_at`

type SignalRepo struct {
	db *sql.DB
}

func NewSignalRepo(db *sql.DB) *SignalRepo {
	return &SignalRepo{db: db}
}

var _ pricing.Repository = (*SignalRepo)(nil)

func scanSignal(row scanner) (pricing.ContentSignal, error) {
	var (
		s                  pricing.ContentSignal
		published, updated int64
		amount             int64
		cur                string
	)
	if err := row.Scan(&s.ContentID, &published, &s.DemandScore, &amount, &cur, &updated); err != nil {
		return pricing.ContentSignal{}, err
	}
	s.PublishedAt = fromUnix(published)
	s.UpdatedAt = fromUnix(updated)
	s.BasePrice = money.New(amount, cur)
	return s, nil
}

func (r *SignalRepo) Get(ctx context.Context, contentID string) (pricing.ContentSignal, error) {
	s, err := scanSignal(r.db.QueryRowContext(ctx, `SELECT `+signalColumns+` FROM content_signals WHERE content_id = ?`, contentID))
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.ContentSignal{}, pricing.ErrUnknownContent
	}
	return s, err
}

// Update corre en una transacción; con una sola conexión abierta, los
// read-modify-write quedan serializados.
func (r *SignalRepo) Update(ctx context.Context, contentID string, fn pricing.UpdateFunc) (pricing.ContentSignal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return pricing.ContentSignal{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanSignal(tx.QueryRowContext(ctx, `SELECT `+signalColumns+` FROM content_signals WHERE content_id = ?`, contentID))
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists, err = false, nil
	}
	if err != nil {
		return pricing.ContentSignal{}, err
	}

	next, err := fn(cur, exists)
	if err != nil {
		return pricing.ContentSignal{}, err
	}
	next.ContentID = contentID

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_signals (`+signalColumns+`) VALUES (?,?,?,?,?,?)
		ON CONFLICT(content_id) DO UPDATE SET
			published_at = excluded.published_at,
			demand_score = excluded.demand_score,
			base_amount = excluded.base_amount,
			base_currency = excluded.base_currency,
			updated_at = excluded.updated_at
	`, next.ContentID, toUnix(next.PublishedAt), next.DemandScore, next.BasePrice.Amount, next.BasePrice.Currency, toUnix(next.UpdatedAt))
	if err != nil {
		return pricing.ContentSignal{}, err
	}

	if err := tx.Commit(); err != nil {
		return pricing.ContentSignal{}, err
	}
	return next, nil
}

func (r *SignalRepo) List(ctx context.Context) ([]pricing.ContentSignal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+signalColumns+` FROM content_signals ORDER BY content_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pricing.ContentSignal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
