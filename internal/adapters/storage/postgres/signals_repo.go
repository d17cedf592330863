package postgres

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
		s      pricing.ContentSignal
		amount int64
		cur    string
	)
	if err := row.Scan(&s.ContentID, &s.PublishedAt, &s.DemandScore, &amount, &cur, &s.UpdatedAt); err != nil {
		return pricing.ContentSignal{}, err
	}
	s.BasePrice = money.New(amount, cur)
	return s, nil
}

func (r *SignalRepo) Get(ctx context.Context, contentID string) (pricing.ContentSignal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+signalColumns+` FROM content_signals WHERE content_id = $1`, contentID)
	s, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.ContentSignal{}, pricing.ErrUnknownContent
	}
	return s, err
}

// Update bloquea la fila con SELECT ... FOR UPDATE. Si dos requests crean el
// mismo contenido a la vez, el que pierde el INSERT reintenta y ve la fila.
func (r *SignalRepo) Update(ctx context.Context, contentID string, fn pricing.UpdateFunc) (pricing.ContentSignal, error) {
	const attempts = 3
	var err error
	for i := 0; i < attempts; i++ {
		var s pricing.ContentSignal
		s, err = r.updateOnce(ctx, contentID, fn)
		if !isUniqueViolation(err, "content_signals_pkey") {
			return s, err
		}
	}
	return pricing.ContentSignal{}, err
}

func (r *SignalRepo) updateOnce(ctx context.Context, contentID string, fn pricing.UpdateFunc) (pricing.ContentSignal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return pricing.ContentSignal{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanSignal(tx.QueryRowContext(ctx,
		`SELECT `+signalColumns+` FROM content_signals WHERE content_id = $1 FOR UPDATE`, contentID))
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

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE content_signals
			SET published_at = $2, demand_score = $3, base_amount = $4, base_currency = $5, updated_at = $6
			WHERE content_id = $1
		`, next.ContentID, next.PublishedAt, next.DemandScore, next.BasePrice.Amount, next.BasePrice.Currency, next.UpdatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO content_signals (`+signalColumns+`) VALUES ($1,$2,$3,$4,$5,$6)
		`, next.ContentID, next.PublishedAt, next.DemandScore, next.BasePrice.Amount, next.BasePrice.Currency, next.UpdatedAt)
	}
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
