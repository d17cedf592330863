package memory

import (
	"context"
	"sort"
	"sync"

	"content-gate/internal/domain/pricing"
)

// SignalRepo serializa los updates con el write lock; las lecturas ven
// siempre un ContentSignal completo.
type SignalRepo struct {
	mu   sync.RWMutex
	byID map[string]pricing.ContentSignal
}

func NewSignalRepo() *SignalRepo {
	return &SignalRepo{byID: make(map[string]pricing.ContentSignal)}
}

var _ pricing.Repository = (*SignalRepo)(nil)

func (r *SignalRepo) Get(_ context.Context, contentID string) (pricing.ContentSignal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[contentID]
	if !ok {
		return pricing.ContentSignal{}, pricing.ErrUnknownContent
	}
	return s, nil
}

func (r *SignalRepo) Update(_ context.Context, contentID string, fn pricing.UpdateFunc) (pricing.ContentSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[contentID]
	next, err := fn(cur, ok)
	if err != nil {
		return pricing.ContentSignal{}, err
	}
	next.ContentID = contentID
	r.byID[contentID] = next
	return next, nil
}

func (r *SignalRepo) List(_ context.Context) ([]pricing.ContentSignal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pricing.ContentSignal, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContentID < out[j].ContentID })
	return out, nil
}
