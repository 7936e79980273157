// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	medicationstore "github.com/dalemusser/shelterhub/internal/app/store/medications"
	"github.com/dalemusser/shelterhub/internal/app/system/metrics"
	"github.com/dalemusser/shelterhub/internal/app/system/ratelimit"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		c := timeouts.Current()
		logger.Info("timeouts overridden from env",
			zap.Int("count", n),
			zap.Duration("short", c.Short),
			zap.Duration("medium", c.Medium),
			zap.Duration("long", c.Long),
			zap.Duration("batch", c.Batch))
	}

	svc := deps.Services
	if appCfg.MetricsEnabled {
		svc.Metrics = metrics.New()
	}
	svc.LoginLimiter = ratelimit.NewLoginLimiter()

	// A nil *Metrics stored in the interface would not compare equal to nil.
	var gauges workers.GaugeSink
	if svc.Metrics != nil {
		gauges = svc.Metrics
	}
	svc.StockSweep = workers.NewStockSweep(map[string]workers.StockLedger{
		"food":       foodstockstore.New(deps.MongoDatabase),
		"medication": medicationstore.New(deps.MongoDatabase),
	}, gauges, logger, appCfg.StockSweepInterval)
	svc.StockSweep.Start()

	logger.Info("background stock sweep started", zap.Duration("interval", appCfg.StockSweepInterval))
	return nil
}
