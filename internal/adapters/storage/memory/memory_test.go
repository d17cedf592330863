package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
	"content-gate/internal/domain/pricing"
	"content-gate/internal/domain/tiers"
	"content-gate/internal/platform/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grant(id, user, content string, issued time.Time) accessgrants.Grant {
	return accessgrants.Grant{
		ID: id, UserID: user, ContentID: content,
		IssuedAt: issued, ExpiresAt: issued.Add(time.Hour),
		Price: money.New(100, "usd"),
	}
}

func TestRevenueStore_TxCommitsBoth(t *testing.T) {
	s := NewRevenueStore()
	ctx := context.Background()
	now := time.Now()

	err := s.WithinTx(ctx, func(ctx context.Context, tx accessgrants.Tx) error {
		if err := tx.Create(ctx, grant("g1", "u1", "c1", now)); err != nil {
			return err
		}
		return tx.Append(ctx, ledger.Entry{ID: "e1", GrantID: "g1", ComputedPrice: money.New(100, "usd"), RecordedAt: now})
	})
	require.NoError(t, err)

	_, err = s.GetByID(ctx, "g1")
	require.NoError(t, err)
	e, err := s.GetByGrant(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)
}

func TestRevenueStore_TxRollsBackOnError(t *testing.T) {
	s := NewRevenueStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Append(ctx, ledger.Entry{ID: "e0", GrantID: "g1", RecordedAt: now}))

	err := s.WithinTx(ctx, func(ctx context.Context, tx accessgrants.Tx) error {
		if err := tx.Create(ctx, grant("g1", "u1", "c1", now)); err != nil {
			return err
		}
		return tx.Append(ctx, ledger.Entry{ID: "e1", GrantID: "g1", RecordedAt: now})
	})
	require.ErrorIs(t, err, ledger.ErrDuplicateGrant)

	_, err = s.GetByID(ctx, "g1")
	assert.ErrorIs(t, err, accessgrants.ErrNotFound)
	items, _ := s.ListByUser(ctx, "u1")
	assert.Empty(t, items)
}

func TestRevenueStore_RejectsNonPositiveLifetime(t *testing.T) {
	s := NewRevenueStore()
	now := time.Now()
	g := grant("g1", "u1", "c1", now)
	g.ExpiresAt = g.IssuedAt

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx accessgrants.Tx) error {
		return tx.Create(ctx, g)
	})
	assert.Error(t, err)
}

func TestRevenueStore_CountGrants(t *testing.T) {
	s := NewRevenueStore()
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		g := grant(id, "u", "c", now.Add(-time.Duration(i)*time.Hour))
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx accessgrants.Tx) error {
			return tx.Create(ctx, g)
		}))
	}

	total, active, err := s.CountGrants(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, active)
}

func TestSignalRepo_UpdateIsSerialized(t *testing.T) {
	r := NewSignalRepo()
	ctx := context.Background()

	_, err := r.Update(ctx, "c", func(cur pricing.ContentSignal, exists bool) (pricing.ContentSignal, error) {
		return pricing.ContentSignal{BasePrice: money.New(1000, "usd")}, nil
	})
	require.NoError(t, err)

	// cada update suma 1 centavo; si se pisaran, el total sería menor
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Update(ctx, "c", func(cur pricing.ContentSignal, _ bool) (pricing.ContentSignal, error) {
				cur.BasePrice.Amount++
				return cur, nil
			})
		}()
	}
	wg.Wait()

	s, err := r.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1100), s.BasePrice.Amount)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, pricing.ErrUnknownContent)
}

// Emisión completa contra los stores en memoria: pricing real, ledger real.
func TestIssueGrant_EndToEndWithMemoryStores(t *testing.T) {
	ctx := context.Background()
	signals := NewSignalRepo()
	store := NewRevenueStore()

	catalog := tiers.Default("usd")
	pricingSvc := pricing.NewService(signals, nil, nil)
	grantsSvc := accessgrants.NewService(store, catalog, pricingSvc, nil)
	ledgerSvc := ledger.NewService(store, store, "usd", nil)

	premium, err := catalog.Lookup("premium")
	require.NoError(t, err)

	_, err = pricingSvc.Register(ctx, pricing.RegisterInput{
		ContentID:   "c1",
		BasePrice:   money.New(1000, "usd"),
		PublishedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = pricingSvc.UpdateDemand(ctx, "c1", 0.4)
	require.NoError(t, err)

	g, err := grantsSvc.IssueGrant(ctx, accessgrants.IssueInput{
		UserID: "u1", ContentID: "c1", TierName: premium.Name, DurationSeconds: 3600,
	})
	require.NoError(t, err)
	assert.Equal(t, money.New(1500, "usd"), g.Price)

	e, err := ledgerSvc.GetByGrant(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Price, e.ComputedPrice)

	d, err := grantsSvc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, g.ID, d.Grant.ID)

	// el precio del grant no cambia aunque cambie el signal
	_, err = pricingSvc.UpdateDemand(ctx, "c1", 1)
	require.NoError(t, err)
	again, err := grantsSvc.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, money.New(1500, "usd"), again.Price)

	total, err := ledgerSvc.Aggregate(ctx, ledger.Query{ContentID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, money.New(1500, "usd"), total)

	st, err := ledgerSvc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalGrants)
	assert.Equal(t, 1, st.ActiveGrants)
}
