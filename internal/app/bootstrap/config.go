// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the default signing key. Production refuses to start with it.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for ShelterHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: SHELTERHUB_MONGO_URI, SHELTERHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "shelterhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Token signing key (at least 32 characters in production)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Token lifetime (e.g., 8h, 24h)"},

	{Name: "cors_origins", Default: "*", Desc: "Comma-separated allowed origins for the web client ('*' allows all)"},

	// File uploads
	{Name: "upload_dir", Default: "./uploads", Desc: "Directory for uploaded files"},
	{Name: "upload_url", Default: "/uploads", Desc: "URL prefix for serving uploaded files"},
	{Name: "upload_max_mb", Default: 10, Desc: "Maximum upload size in megabytes"},

	{Name: "import_max_rows", Default: 5000, Desc: "Maximum rows accepted by the beneficiary import"},

	// Bootstrap admin
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created or promoted on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created bootstrap admin"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "stock_sweep_interval", Default: "15m", Desc: "How often expired stock lines are re-evaluated"},
	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SHELTERHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SHELTERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		UploadDir:   appValues.String("upload_dir"),
		UploadURL:   strings.TrimRight(appValues.String("upload_url"), "/"),
		UploadMaxMB: appValues.Int("upload_max_mb"),

		ImportMaxRows: appValues.Int("import_max_rows"),

		AdminEmail:    strings.TrimSpace(appValues.String("admin_email")),
		AdminPassword: appValues.String("admin_password"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		StockSweepInterval: appValues.Duration("stock_sweep_interval", 15*time.Minute),
		MetricsEnabled:     appValues.Bool("metrics_enabled"),
	}
	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection attempt; production
// also requires a real token signing key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < auth.MinSecretLen {
			return fmt.Errorf("jwt_secret must be set to at least %d characters in production", auth.MinSecretLen)
		}
	} else if appCfg.JWTSecret == devJWTSecret {
		logger.Warn("using the development jwt_secret; set SHELTERHUB_JWT_SECRET before deploying")
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}

	if appCfg.UploadDir == "" || appCfg.UploadURL == "" {
		return fmt.Errorf("upload_dir and upload_url are required")
	}
	if appCfg.UploadMaxMB <= 0 {
		return fmt.Errorf("upload_max_mb must be positive")
	}
	if appCfg.ImportMaxRows <= 0 {
		return fmt.Errorf("import_max_rows must be positive")
	}
	if appCfg.StockSweepInterval <= 0 {
		return fmt.Errorf("stock_sweep_interval must be positive")
	}

	for name, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}

	if appCfg.AdminEmail != "" && appCfg.AdminPassword == "" {
		logger.Info("admin_email set without admin_password; the admin will only be promoted if it exists")
	}
	return nil
}
