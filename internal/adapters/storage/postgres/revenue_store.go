package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/money"

	"github.com/jackc/pgx/v5/pgtype"
)

const grantColumns = `
	id, user_id, content_id,
	tier_name, tier_description, tier_features, tier_base_amount, tier_base_currency,
	issued_at, expires_at,
	price_amount, price_currency`

const entryColumns = `
	id, grant_id, user_id, content_id, tier_name,
	price_amount, price_currency, recorded_at`

// RevenueStore persiste grants y ledger; la emisión usa una sola sql.Tx.
type RevenueStore struct {
	db *sql.DB
}

func NewRevenueStore(db *sql.DB) *RevenueStore {
	return &RevenueStore{db: db}
}

var (
	_ accessgrants.Repository = (*RevenueStore)(nil)
	_ ledger.Repository       = (*RevenueStore)(nil)
	_ ledger.GrantCounter     = (*RevenueStore)(nil)
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type pgTx struct {
	tx *sql.Tx
}

func (t pgTx) Create(ctx context.Context, g accessgrants.Grant) error {
	return insertGrant(ctx, t.tx, g)
}

func (t pgTx) Append(ctx context.Context, e ledger.Entry) error {
	return insertEntry(ctx, t.tx, e)
}

func (s *RevenueStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accessgrants.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, pgTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertGrant(ctx context.Context, ex execer, g accessgrants.Grant) error {
	features := g.Tier.Features
	if features == nil {
		features = []string{}
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		g.ID,
		g.UserID,
		g.ContentID,
		g.Tier.Name,
		g.Tier.Description,
		features,
		g.Tier.BasePrice.Amount,
		g.Tier.BasePrice.Currency,
		g.IssuedAt,
		g.ExpiresAt,
		g.Price.Amount,
		g.Price.Currency,
	)
	return err
}

func insertEntry(ctx context.Context, ex execer, e ledger.Entry) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.GrantID,
		e.UserID,
		e.ContentID,
		e.TierName,
		e.ComputedPrice.Amount,
		e.ComputedPrice.Currency,
		e.RecordedAt,
	)
	if isUniqueViolation(err, "ledger_entries_grant_id_key") {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateGrant, e.GrantID)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanGrant usa un pgtype.Map por query (no es seguro entre goroutines)
// para leer tier_features como []string.
func scanGrant(types *pgtype.Map, row scanner) (accessgrants.Grant, error) {
	var (
		g                    accessgrants.Grant
		features             []string
		baseAmount, priceAmt int64
		baseCur, priceCur    string
	)
	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.ContentID,
		&g.Tier.Name,
		&g.Tier.Description,
		types.SQLScanner(&features),
		&baseAmount,
		&baseCur,
		&g.IssuedAt,
		&g.ExpiresAt,
		&priceAmt,
		&priceCur,
	); err != nil {
		return accessgrants.Grant{}, err
	}
	g.Tier = tiers.Tier{
		Name:        g.Tier.Name,
		Description: g.Tier.Description,
		Features:    features,
		BasePrice:   money.New(baseAmount, baseCur),
	}
	g.Price = money.New(priceAmt, priceCur)
	return g, nil
}

func scanEntry(row scanner) (ledger.Entry, error) {
	var (
		e      ledger.Entry
		amount int64
		cur    string
	)
	if err := row.Scan(
		&e.ID,
		&e.GrantID,
		&e.UserID,
		&e.ContentID,
		&e.TierName,
		&amount,
		&cur,
		&e.RecordedAt,
	); err != nil {
		return ledger.Entry{}, err
	}
	e.ComputedPrice = money.New(amount, cur)
	return e, nil
}

func (s *RevenueStore) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE id = $1`, id)
	g, err := scanGrant(pgtype.NewMap(), row)
	if errors.Is(err, sql.ErrNoRows) {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, err
}

func (s *RevenueStore) ListByUser(ctx context.Context, userID string) ([]accessgrants.Grant, error) {
	return s.listGrants(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE user_id = $1
		ORDER BY issued_at DESC, id DESC
	`, userID)
}

func (s *RevenueStore) ListByUserContent(ctx context.Context, userID, contentID string) ([]accessgrants.Grant, error) {
	return s.listGrants(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE user_id = $1 AND content_id = $2
		ORDER BY issued_at DESC, id DESC
	`, userID, contentID)
}

func (s *RevenueStore) listGrants(ctx context.Context, query string, args ...any) ([]accessgrants.Grant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := pgtype.NewMap()
	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(types, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *RevenueStore) Append(ctx context.Context, e ledger.Entry) error {
	return insertEntry(ctx, s.db, e)
}

func (s *RevenueStore) GetByGrant(ctx context.Context, grantID string) (ledger.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE grant_id = $1`, grantID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	return e, err
}

func (s *RevenueStore) ListEntries(ctx context.Context, q ledger.Query) ([]ledger.Entry, error) {
	query, args := buildEntriesQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ledger.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// buildEntriesQuery arma el WHERE dinámico con placeholders $N.
func buildEntriesQuery(q ledger.Query) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + entryColumns + ` FROM ledger_entries WHERE 1=1`)

	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		sb.WriteString(fmt.Sprintf(" AND %s $%d", cond, len(args)))
	}

	if q.ContentID != "" {
		add("content_id =", q.ContentID)
	}
	if q.UserID != "" {
		add("user_id =", q.UserID)
	}
	if q.TierName != "" {
		add("tier_name =", q.TierName)
	}
	if q.Currency != "" {
		add("price_currency =", q.Currency)
	}
	if q.From != nil {
		add("recorded_at >=", *q.From)
	}
	if q.To != nil {
		add("recorded_at <", *q.To)
	}

	sb.WriteString(" ORDER BY recorded_at ASC, id ASC")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	return sb.String(), args
}

func (s *RevenueStore) CountGrants(ctx context.Context, activeAt time.Time) (int, int, error) {
	var total, active int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE expires_at > $1)
		FROM access_grants
	`, activeAt).Scan(&total, &active)
	return total, active, err
}
