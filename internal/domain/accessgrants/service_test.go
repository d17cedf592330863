package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory, transaccional)
// -------------------------

type testRepo struct {
	mu      sync.Mutex
	grants  map[string]Grant
	entries map[string]ledger.Entry // por grant id

	failAppend error
}

func newTestRepo() *testRepo {
	return &testRepo{grants: map[string]Grant{}, entries: map[string]ledger.Entry{}}
}

type testTx struct {
	repo    *testRepo
	grants  []Grant
	entries []ledger.Entry
}

func (tx *testTx) Create(_ context.Context, g Grant) error {
	if _, ok := tx.repo.grants[g.ID]; ok {
		return errors.New("repo: duplicate grant id")
	}
	tx.grants = append(tx.grants, g)
	return nil
}

func (tx *testTx) Append(_ context.Context, e ledger.Entry) error {
	if tx.repo.failAppend != nil {
		return tx.repo.failAppend
	}
	if _, ok := tx.repo.entries[e.GrantID]; ok {
		return ledger.ErrDuplicateGrant
	}
	tx.entries = append(tx.entries, e)
	return nil
}

func (r *testRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &testTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, g := range tx.grants {
		r.grants[g.ID] = g
	}
	for _, e := range tx.entries {
		r.entries[e.GrantID] = e
	}
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[id]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *testRepo) ListByUser(_ context.Context, userID string) ([]Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Grant{}
	for _, g := range r.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByUserContent(ctx context.Context, userID, contentID string) ([]Grant, error) {
	all, _ := r.ListByUser(ctx, userID)
	out := []Grant{}
	for _, g := range all {
		if g.ContentID == contentID {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakePricer struct {
	prices map[string]money.Money
	err    error
}

func (p fakePricer) PriceOrRegister(_ context.Context, contentID string, fallback money.Money) (money.Money, error) {
	if p.err != nil {
		return money.Money{}, p.err
	}
	if m, ok := p.prices[contentID]; ok {
		return m, nil
	}
	return fallback, nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *testRepo, pricer Pricer) *Service {
	t.Helper()
	svc := NewService(repo, tiers.Default("usd"), pricer, nil)
	svc.now = func() time.Time { return t0 }
	return svc
}

func scenarioPricer() fakePricer {
	// premium base 10.00, publicado hace 1h, demand 0.4 => 15.00
	return fakePricer{prices: map[string]money.Money{"c1": money.New(1500, "usd")}}
}

func TestIssueGrant_ScenarioB(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	ctx := context.Background()

	g, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 3600})
	require.NoError(t, err)
	assert.Equal(t, money.New(1500, "usd"), g.Price)
	assert.Equal(t, "premium", g.Tier.Name)
	assert.Equal(t, time.Hour, g.ExpiresAt.Sub(g.IssuedAt))

	e, ok := repo.entries[g.ID]
	require.True(t, ok, "ledger entry must exist")
	assert.Equal(t, g.Price, e.ComputedPrice)
	assert.Equal(t, t0, e.RecordedAt)

	d, err := svc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, g.ID, d.Grant.ID)
}

func TestCheckAccess_ScenarioC_Expired(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	ctx := context.Background()

	g, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 3600})
	require.NoError(t, err)

	svc.now = func() time.Time { return g.ExpiresAt.Add(time.Second) }
	d, err := svc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// el grant vencido no se borra
	_, err = repo.GetByID(ctx, g.ID)
	assert.NoError(t, err)
}

func TestCheckAccess_ExpiryIsStrict(t *testing.T) {
	g := Grant{ID: "g", UserID: "u", ContentID: "c", IssuedAt: t0, ExpiresAt: t0.Add(time.Minute)}

	assert.True(t, CheckAccess("u", "c", []Grant{g}, g.ExpiresAt.Add(-time.Nanosecond)).Allowed)
	assert.False(t, CheckAccess("u", "c", []Grant{g}, g.ExpiresAt).Allowed)
}

func TestCheckAccess_ScenarioD_LatestIssuedWins(t *testing.T) {
	older := Grant{ID: "z-old", UserID: "u1", ContentID: "c1", IssuedAt: t0.Add(-2 * time.Hour), ExpiresAt: t0.Add(time.Hour)}
	newer := Grant{ID: "a-new", UserID: "u1", ContentID: "c1", IssuedAt: t0.Add(-time.Hour), ExpiresAt: t0.Add(time.Hour)}

	d := CheckAccess("u1", "c1", []Grant{newer, older}, t0)
	require.True(t, d.Allowed)
	assert.Equal(t, "a-new", d.Grant.ID)

	d = CheckAccess("u1", "c1", []Grant{older, newer}, t0)
	assert.Equal(t, "a-new", d.Grant.ID)
}

func TestCheckAccess_TieBreakByID(t *testing.T) {
	a := Grant{ID: "aaa", UserID: "u", ContentID: "c", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)}
	b := Grant{ID: "bbb", UserID: "u", ContentID: "c", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)}

	assert.Equal(t, "bbb", CheckAccess("u", "c", []Grant{a, b}, t0).Grant.ID)
	assert.Equal(t, "bbb", CheckAccess("u", "c", []Grant{b, a}, t0).Grant.ID)
}

func TestCheckAccess_IgnoresOtherUsersAndContents(t *testing.T) {
	grants := []Grant{
		{ID: "1", UserID: "u2", ContentID: "c1", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)},
		{ID: "2", UserID: "u1", ContentID: "c2", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)},
	}
	assert.False(t, CheckAccess("u1", "c1", grants, t0).Allowed)
	assert.False(t, CheckAccess("u1", "c1", nil, t0).Allowed)
}

func TestCheckAccessForTier(t *testing.T) {
	cat := tiers.Default("usd")
	premium, _ := cat.Lookup("premium")
	enterprise, _ := cat.Lookup("enterprise")
	free, _ := cat.Lookup("free")

	g := Grant{ID: "g", UserID: "u", ContentID: "c", Tier: premium, IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)}

	assert.True(t, CheckAccessForTier("u", "c", free, []Grant{g}, t0).Allowed)
	assert.True(t, CheckAccessForTier("u", "c", premium, []Grant{g}, t0).Allowed)
	assert.False(t, CheckAccessForTier("u", "c", enterprise, []Grant{g}, t0).Allowed)
}

func TestIssueGrant_Validation(t *testing.T) {
	svc := newTestService(t, newTestRepo(), scenarioPricer())
	ctx := context.Background()

	_, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "platinum", DurationSeconds: 60})
	assert.ErrorIs(t, err, tiers.ErrUnknownTier)

	_, err = svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 0})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: -5})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 1 << 40})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = svc.IssueGrant(ctx, IssueInput{UserID: " ", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateIssue_DoesNotTouchPricing(t *testing.T) {
	svc := newTestService(t, newTestRepo(), fakePricer{err: errors.New("pricing must not be called")})

	assert.NoError(t, svc.ValidateIssue(IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60}))
	assert.ErrorIs(t, svc.ValidateIssue(IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: -5}), ErrInvalidDuration)
	assert.ErrorIs(t, svc.ValidateIssue(IssueInput{UserID: "u1", ContentID: "c1", TierName: "gold", DurationSeconds: 60}), tiers.ErrUnknownTier)
	assert.ErrorIs(t, svc.ValidateIssue(IssueInput{UserID: "u1", TierName: "premium", DurationSeconds: 60}), ErrInvalidInput)
	assert.ErrorIs(t, svc.ValidateIssue(IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: MaxDurationSeconds + 1}), ErrInvalidDuration)
}

func TestIssueGrant_LongDurationsAreValid(t *testing.T) {
	svc := newTestService(t, newTestRepo(), scenarioPricer())

	twoYears := int64(2 * 365 * 24 * 3600)
	g, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: twoYears})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(twoYears)*time.Second, g.ExpiresAt.Sub(g.IssuedAt))
}

func TestIssueGrant_QuotedPriceMustMatch(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	ctx := context.Background()

	stale := money.New(1000, "usd")
	_, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60, QuotedPrice: &stale})
	assert.ErrorIs(t, err, ErrPriceChanged)
	assert.ErrorIs(t, err, ErrIssuanceFailed)
	assert.Empty(t, repo.grants)
	assert.Empty(t, repo.entries)

	charged := money.New(1500, "usd")
	g, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60, QuotedPrice: &charged})
	require.NoError(t, err)
	assert.Equal(t, charged, g.Price)
	assert.Equal(t, charged, repo.entries[g.ID].ComputedPrice)
}

func TestIssueGrant_ExactDuration(t *testing.T) {
	svc := newTestService(t, newTestRepo(), scenarioPricer())

	for _, secs := range []int64{1, 59, 3600, 86400, 7 * 86400} {
		g, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u", ContentID: "c1", TierName: "free", DurationSeconds: secs})
		require.NoError(t, err)
		assert.Equal(t, time.Duration(secs)*time.Second, g.ExpiresAt.Sub(g.IssuedAt))
		assert.True(t, g.ExpiresAt.After(g.IssuedAt))
	}
}

func TestIssueGrant_FallsBackToTierBasePrice(t *testing.T) {
	svc := newTestService(t, newTestRepo(), fakePricer{})

	g, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u", ContentID: "unpriced", TierName: "enterprise", DurationSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, money.New(9999, "usd"), g.Price)
}

func TestIssueGrant_LedgerFailureLeavesNoGrant(t *testing.T) {
	repo := newTestRepo()
	repo.failAppend = errors.New("ledger unavailable")
	svc := newTestService(t, repo, scenarioPricer())
	ctx := context.Background()

	_, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	require.ErrorIs(t, err, ErrIssuanceFailed)

	assert.Empty(t, repo.grants)
	assert.Empty(t, repo.entries)

	d, err := svc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestIssueGrant_DuplicateEntryIsIssuanceFailure(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	repo.entries["fixed"] = ledger.Entry{ID: "e0", GrantID: "fixed"}
	svc.newID = func() string { return "fixed" }

	_, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	assert.ErrorIs(t, err, ErrIssuanceFailed)
	assert.ErrorIs(t, err, ledger.ErrDuplicateGrant)
	assert.Empty(t, repo.grants)
}

func TestIssueGrant_PricingErrorPropagates(t *testing.T) {
	boom := errors.New("pricing down")
	svc := newTestService(t, newTestRepo(), fakePricer{err: boom})

	_, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	assert.ErrorIs(t, err, boom)
}

func TestIssueGrant_NotIdempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	in := IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60}

	a, err := svc.IssueGrant(context.Background(), in)
	require.NoError(t, err)
	b, err := svc.IssueGrant(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, repo.grants, 2)
	assert.Len(t, repo.entries, 2)
}

func TestIssueGrant_ConcurrentSameUserContent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IssueGrant(context.Background(), IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, repo.grants, n)
	require.Len(t, repo.entries, n)
	for id := range repo.grants {
		_, ok := repo.entries[id]
		assert.True(t, ok, fmt.Sprintf("missing ledger entry for %s", id))
	}
}

func TestListByUser_NewestFirstAndActiveFilter(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo, scenarioPricer())
	ctx := context.Background()

	first, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	require.NoError(t, err)

	svc.now = func() time.Time { return t0.Add(2 * time.Minute) }
	second, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c2", TierName: "premium", DurationSeconds: 60})
	require.NoError(t, err)

	all, err := svc.ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	active, err := svc.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestGet_OnlyOwner(t *testing.T) {
	svc := newTestService(t, newTestRepo(), scenarioPricer())
	ctx := context.Background()

	g, err := svc.IssueGrant(ctx, IssueInput{UserID: "u1", ContentID: "c1", TierName: "premium", DurationSeconds: 60})
	require.NoError(t, err)

	_, err = svc.Get(ctx, g.ID, "u2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
}
