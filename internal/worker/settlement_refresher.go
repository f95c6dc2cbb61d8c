package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// SettlementFacade exposes the subset of application functionality required by the worker.
type SettlementFacade interface {
	RefreshableSettlements(ctx context.Context, limit int) ([]model.SettlementSummary, error)
	RecomputeSettlement(ctx context.Context, summary model.SettlementSummary) error
}

// SettlementRefresher periodically recomputes summaries whose settlement
// period is still open so totals track newly ingested rows.
type SettlementRefresher struct {
	facade       SettlementFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.SettlementSummary
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSettlementRefresher constructs the refresh worker pool.
func NewSettlementRefresher(facade SettlementFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *SettlementRefresher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &SettlementRefresher{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.SettlementSummary, batchSize*workers),
	}
}

// Start launches background processing.
func (r *SettlementRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *SettlementRefresher) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *SettlementRefresher) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *SettlementRefresher) fetchAndDispatch(ctx context.Context) {
	summaries, err := r.facade.RefreshableSettlements(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch refreshable settlements failed", slog.String("error", err.Error()))
		return
	}
	for _, summary := range summaries {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- summary:
		}
	}
}

func (r *SettlementRefresher) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case summary, ok := <-r.jobs:
			if !ok {
				return
			}
			r.refresh(ctx, summary)
		}
	}
}

func (r *SettlementRefresher) refresh(ctx context.Context, summary model.SettlementSummary) {
	if err := r.facade.RecomputeSettlement(ctx, summary); err != nil {
		r.logger.Error("settlement refresh failed",
			slog.String("owner", summary.OwnerCompany),
			slog.String("counterparty", summary.Counterparty.Key),
			slog.String("error", err.Error()),
		)
	}
}
