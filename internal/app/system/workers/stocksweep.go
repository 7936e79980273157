// internal/app/system/workers/stocksweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.uber.org/zap"
)

// StockLedger is the part of a stock store the sweep needs.
type StockLedger interface {
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
	CountBy(ctx context.Context, field string) (map[string]int64, error)
}

// GaugeSink receives the per-statut counts after each pass.
type GaugeSink interface {
	SetStockCounts(kind string, statuses []string, counts map[string]int64)
}

// StockSweep is a background worker that recomputes the derived statut of
// stock lines whose expiration date passed since their last write, then
// publishes the per-statut counts.
type StockSweep struct {
	ledgers  map[string]StockLedger
	gauges   GaugeSink
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStockSweep creates a sweep over the given ledgers, keyed by kind
// ("food", "medication"). gauges may be nil when metrics are disabled.
func NewStockSweep(ledgers map[string]StockLedger, gauges GaugeSink, logger *zap.Logger, interval time.Duration) *StockSweep {
	return &StockSweep{
		ledgers:  ledgers,
		gauges:   gauges,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval.
func (w *StockSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("stock sweep worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StockSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("stock sweep worker stopped")
}

func (w *StockSweep) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep performs one pass over every ledger.
func (w *StockSweep) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	now := w.now().UTC()
	for kind, l := range w.ledgers {
		n, err := l.RefreshStatuses(ctx, now)
		if err != nil {
			w.log.Error("stock statut refresh failed", zap.String("kind", kind), zap.Error(err))
			continue
		}
		if n > 0 {
			w.log.Info("stock statut refreshed", zap.String("kind", kind), zap.Int64("count", n))
		}
		if w.gauges == nil {
			continue
		}
		counts, err := l.CountBy(ctx, "statut")
		if err != nil {
			w.log.Warn("stock count failed", zap.String("kind", kind), zap.Error(err))
			continue
		}
		w.gauges.SetStockCounts(kind, models.StockStatuses, counts)
	}
}
