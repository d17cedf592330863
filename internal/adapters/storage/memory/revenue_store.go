package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"content-gate/internal/domain/accessgrants"
	"content-gate/internal/domain/ledger"
)

// RevenueStore guarda grants y entries de ledger bajo el mismo lock, así
// WithinTx puede confirmar ambos juntos.
type RevenueStore struct {
	mu      sync.RWMutex
	grants  map[string]accessgrants.Grant
	byUser  map[string][]string // userID -> grant ids
	entries []ledger.Entry
	byGrant map[string]int // grantID -> índice en entries
}

func NewRevenueStore() *RevenueStore {
	return &RevenueStore{
		grants:  make(map[string]accessgrants.Grant),
		byUser:  make(map[string][]string),
		byGrant: make(map[string]int),
	}
}

var (
	_ accessgrants.Repository = (*RevenueStore)(nil)
	_ ledger.Repository       = (*RevenueStore)(nil)
	_ ledger.GrantCounter     = (*RevenueStore)(nil)
)

// stagedTx acumula escrituras; nada es visible hasta el commit.
type stagedTx struct {
	s       *RevenueStore
	grants  []accessgrants.Grant
	entries []ledger.Entry
}

func (tx *stagedTx) Create(_ context.Context, g accessgrants.Grant) error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := tx.s.grants[g.ID]; exists {
		return errors.New("grant already exists")
	}
	for _, staged := range tx.grants {
		if staged.ID == g.ID {
			return errors.New("grant already exists")
		}
	}
	if !g.ExpiresAt.After(g.IssuedAt) {
		return errors.New("grant expires_at must be after issued_at")
	}
	tx.grants = append(tx.grants, g)
	return nil
}

func (tx *stagedTx) Append(_ context.Context, e ledger.Entry) error {
	if err := tx.s.checkAppend(e, tx.entries); err != nil {
		return err
	}
	tx.entries = append(tx.entries, e)
	return nil
}

func (s *RevenueStore) checkAppend(e ledger.Entry, staged []ledger.Entry) error {
	if strings.TrimSpace(e.GrantID) == "" {
		return errors.New("ledger entry grant id required")
	}
	if _, exists := s.byGrant[e.GrantID]; exists {
		return ledger.ErrDuplicateGrant
	}
	for _, x := range staged {
		if x.GrantID == e.GrantID {
			return ledger.ErrDuplicateGrant
		}
	}
	return nil
}

func (tx *stagedTx) commit() {
	for _, g := range tx.grants {
		tx.s.grants[g.ID] = g
		tx.s.byUser[g.UserID] = append(tx.s.byUser[g.UserID], g.ID)
	}
	for _, e := range tx.entries {
		tx.s.byGrant[e.GrantID] = len(tx.s.entries)
		tx.s.entries = append(tx.s.entries, e)
	}
}

func (s *RevenueStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accessgrants.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &stagedTx{s: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *RevenueStore) GetByID(_ context.Context, id string) (accessgrants.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[id]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, nil
}

func (s *RevenueStore) ListByUser(_ context.Context, userID string) ([]accessgrants.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]accessgrants.Grant, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.grants[id])
	}
	return out, nil
}

func (s *RevenueStore) ListByUserContent(_ context.Context, userID, contentID string) ([]accessgrants.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, id := range s.byUser[userID] {
		if g := s.grants[id]; g.ContentID == contentID {
			out = append(out, g)
		}
	}
	return out, nil
}

// Append fuera de una transacción de emisión (ledger.Service.Record).
func (s *RevenueStore) Append(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAppend(e, nil); err != nil {
		return err
	}
	s.byGrant[e.GrantID] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

func (s *RevenueStore) GetByGrant(_ context.Context, grantID string) (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byGrant[grantID]
	if !ok {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	return s.entries[i], nil
}

func (s *RevenueStore) ListEntries(_ context.Context, q ledger.Query) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := q
	cols.Where = nil

	out := make([]ledger.Entry, 0)
	for _, e := range s.entries {
		if cols.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *RevenueStore) CountGrants(_ context.Context, activeAt time.Time) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for _, g := range s.grants {
		if g.ActiveAt(activeAt) {
			active++
		}
	}
	return len(s.grants), active, nil
}
