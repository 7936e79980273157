// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/shelterhub/internal/app/system/metrics"
	"github.com/dalemusser/shelterhub/internal/app/system/ratelimit"
	"github.com/dalemusser/shelterhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is shared by pointer between hooks: Startup fills it,
	// BuildHandler reads it and Shutdown stops it.
	Services *Services
}

// Services are long-lived helpers started once per process.
type Services struct {
	Metrics      *metrics.Metrics // nil when metrics are disabled
	StockSweep   *workers.StockSweep
	LoginLimiter *ratelimit.LoginLimiter
}
