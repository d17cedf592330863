package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/money"
)

const grantColumns = `id, user_id, content_id,
	tier_name, tier_description, tier_features, tier_base_amount, tier_base_currency,
	issued_at, expires_at, price_amount, price_currency`

const entryColumns = `id, grant_id, user_id, content_id, tier_name,
	price_amount, price_currency, recorded_at`

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

type sqliteTx struct{ tx *sql.Tx }

func (t sqliteTx) Create(ctx context.Context, g accessgrants.Grant) error { return insertGrant(ctx, t.tx, g) }
func (t sqliteTx) Append(ctx context.Context, e ledger.Entry) error      { return insertEntry(ctx, t.tx, e) }

func (s *RevenueStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accessgrants.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, sqliteTx{tx: tx}); err != nil {
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
	rawFeatures, err := json.Marshal(features)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO access_grants (`+grantColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		g.ID, g.UserID, g.ContentID,
		g.Tier.Name, g.Tier.Description, string(rawFeatures), g.Tier.BasePrice.Amount, g.Tier.BasePrice.Currency,
		toUnix(g.IssuedAt), toUnix(g.ExpiresAt), g.Price.Amount, g.Price.Currency,
	)
	return err
}

func insertEntry(ctx context.Context, ex execer, e ledger.Entry) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO ledger_entries (`+entryColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.GrantID, e.UserID, e.ContentID, e.TierName,
		e.ComputedPrice.Amount, e.ComputedPrice.Currency, toUnix(e.RecordedAt),
	)
	if isUniqueViolation(err, "ledger_entries.grant_id") {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateGrant, e.GrantID)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGrant(row scanner) (accessgrants.Grant, error) {
	var (
		g                    accessgrants.Grant
		name, desc, rawFeat  string
		baseAmount, priceAmt int64
		baseCur, priceCur    string
		issued, expires      int64
	)
	if err := row.Scan(
		&g.ID, &g.UserID, &g.ContentID,
		&name, &desc, &rawFeat, &baseAmount, &baseCur,
		&issued, &expires, &priceAmt, &priceCur,
	); err != nil {
		return accessgrants.Grant{}, err
	}

	var features []string
	if err := json.Unmarshal([]byte(rawFeat), &features); err != nil {
		return accessgrants.Grant{}, fmt.Errorf("grant %s: decode tier features: %w", g.ID, err)
	}

	g.Tier = tiers.Tier{Name: name, Description: desc, Features: features, BasePrice: money.New(baseAmount, baseCur)}
	g.IssuedAt = fromUnix(issued)
	g.ExpiresAt = fromUnix(expires)
	g.Price = money.New(priceAmt, priceCur)
	return g, nil
}

func scanEntry(row scanner) (ledger.Entry, error) {
	var (
		e        ledger.Entry
		amount   int64
		cur      string
		recorded int64
	)
	if err := row.Scan(&e.ID, &e.GrantID, &e.UserID, &e.ContentID, &e.TierName, &amount, &cur, &recorded); err != nil {
		return ledger.Entry{}, err
	}
	e.ComputedPrice = money.New(amount, cur)
	e.RecordedAt = fromUnix(recorded)
	return e, nil
}

func (s *RevenueStore) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	g, err := scanGrant(s.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, err
}

func (s *RevenueStore) ListByUser(ctx context.Context, userID string) ([]accessgrants.Grant, error) {
	return s.listGrants(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE user_id = ? ORDER BY issued_at DESC, id DESC`, userID)
}

func (s *RevenueStore) ListByUserContent(ctx context.Context, userID, contentID string) ([]accessgrants.Grant, error) {
	return s.listGrants(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE user_id = ? AND content_id = ? ORDER BY issued_at DESC, id DESC`, userID, contentID)
}

func (s *RevenueStore) listGrants(ctx context.Context, query string, args ...any) ([]accessgrants.Grant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
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
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE grant_id = ?`, grantID))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	return e, err
}

func (s *RevenueStore) ListEntries(ctx context.Context, q ledger.Query) ([]ledger.Entry, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + entryColumns + ` FROM ledger_entries WHERE 1=1`)
	args := []any{}

	if q.ContentID != "" {
		sb.WriteString(" AND content_id = ?")
		args = append(args, q.ContentID)
	}
	if q.UserID != "" {
		sb.WriteString(" AND user_id = ?")
		args = append(args, q.UserID)
	}
	if q.TierName != "" {
		sb.WriteString(" AND tier_name = ?")
		args = append(args, q.TierName)
	}
	if q.Currency != "" {
		sb.WriteString(" AND price_currency = ?")
		args = append(args, q.Currency)
	}
	if q.From != nil {
		sb.WriteString(" AND recorded_at >= ?")
		args = append(args, toUnix(*q.From))
	}
	if q.To != nil {
		sb.WriteString(" AND recorded_at < ?")
		args = append(args, toUnix(*q.To))
	}
	sb.WriteString(" ORDER BY recorded_at ASC, id ASC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
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

func (s *RevenueStore) CountGrants(ctx context.Context, activeAt time.Time) (int, int, error) {
	var total, active int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0)
		FROM access_grants
	`, toUnix(activeAt)).Scan(&total, &active)
	return total, active, err
}
