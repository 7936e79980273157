// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and request limits; everything ShelterHub needs on
// top of that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HMAC key for signing tokens (>= 32 chars in production)
	JWTTTL    time.Duration // token lifetime

	// Origins allowed by CORS and by the chat WebSocket upgrade. Empty or
	// "*" allows any origin.
	CORSOrigins []string

	// File uploads
	UploadDir   string // directory on local disk
	UploadURL   string // URL prefix the files are served under (e.g., "/uploads")
	UploadMaxMB int    // per-file size cap

	// Spreadsheet import row cap
	ImportMaxRows int

	// Bootstrap admin, created or promoted at startup when both are set.
	AdminEmail    string
	AdminPassword string

	// Audit logging destinations: all | db | log | off
	AuditLogAuth  string
	AuditLogAdmin string

	// Background stock statut sweep
	StockSweepInterval time.Duration

	// Serve /metrics and record request metrics
	MetricsEnabled bool
}
