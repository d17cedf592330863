// Package jobs corre el refresco periódico del demand score de los contenidos.
package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"content-gate/internal/domain/pricing"
	"content-gate/internal/platform/logger"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 8
	DefaultRunTimeout  = 2 * time.Minute
)

var ErrAlreadyStarted = errors.New("refresher already started")

// SignalRefresher lo implementa pricing.Service.
type SignalRefresher interface {
	List(ctx context.Context) ([]pricing.ContentSignal, error)
	Refresh(ctx context.Context, contentID string) (pricing.ContentSignal, error)
}

type Result struct {
	Total     int
	Refreshed int
	Failed    int
}

type Refresher struct {
	svc         SignalRefresher
	log         logger.Logger
	concurrency int
	runTimeout  time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewRefresher(svc SignalRefresher, concurrency int, log logger.Logger) *Refresher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Refresher{
		svc:         svc,
		log:         log.With(map[string]any{"component": "jobs.refresher"}),
		concurrency: concurrency,
		runTimeout:  DefaultRunTimeout,
	}
}

// RefreshAll refresca todos los signals con a lo sumo `concurrency` llamadas
// en vuelo. Una falla individual no corta el resto: el signal queda como
// estaba y se cuenta en Failed.
func (r *Refresher) RefreshAll(ctx context.Context) (Result, error) {
	items, err := r.svc.List(ctx)
	if err != nil {
		return Result{}, err
	}

	var refreshed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, s := range items {
		if ctx.Err() != nil {
			break
		}
		contentID := s.ContentID
		g.Go(func() error {
			if _, err := r.svc.Refresh(ctx, contentID); err != nil {
				failed.Add(1)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Total:     len(items),
		Refreshed: int(refreshed.Load()),
		Failed:    int(failed.Load()),
	}
	r.log.Info("demand refresh finished", map[string]any{
		"total":     res.Total,
		"refreshed": res.Refreshed,
		"failed":    res.Failed,
	})
	return res, ctx.Err()
}

// Start agenda RefreshAll con una expresión cron ("@every 5m", "*/10 * * * *").
// Las corridas no se solapan: si la anterior sigue, se saltea el tick.
func (r *Refresher) Start(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		runCtx, done := context.WithTimeout(ctx, r.runTimeout)
		defer done()
		if _, err := r.RefreshAll(runCtx); err != nil {
			r.log.Warn("demand refresh aborted", map[string]any{"err": err})
		}
	})
	if err != nil {
		cancel()
		return err
	}

	c.Start()
	r.cron = c
	r.cancel = cancel
	r.log.Info("demand refresher started", map[string]any{"schedule": schedule})
	return nil
}

// Stop cancela la corrida en curso y espera a que termine.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}
