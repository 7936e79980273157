// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/dalemusser/shelterhub/internal/app/features/announcements"
	approvalsfeature "github.com/dalemusser/shelterhub/internal/app/features/approvals"
	attendancefeature "github.com/dalemusser/shelterhub/internal/app/features/attendance"
	auditlogfeature "github.com/dalemusser/shelterhub/internal/app/features/auditlog"
	beneficiariesfeature "github.com/dalemusser/shelterhub/internal/app/features/beneficiaries"
	distributionsfeature "github.com/dalemusser/shelterhub/internal/app/features/distributions"
	exitlogsfeature "github.com/dalemusser/shelterhub/internal/app/features/exitlogs"
	foodstockfeature "github.com/dalemusser/shelterhub/internal/app/features/foodstock"
	healthfeature "github.com/dalemusser/shelterhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/shelterhub/internal/app/features/login"
	messagesfeature "github.com/dalemusser/shelterhub/internal/app/features/messages"
	newsfeature "github.com/dalemusser/shelterhub/internal/app/features/news"
	pharmacyfeature "github.com/dalemusser/shelterhub/internal/app/features/pharmacy"
	profilefeature "github.com/dalemusser/shelterhub/internal/app/features/profile"
	reportsfeature "github.com/dalemusser/shelterhub/internal/app/features/reports"
	schedulesfeature "github.com/dalemusser/shelterhub/internal/app/features/schedules"
	ticketsfeature "github.com/dalemusser/shelterhub/internal/app/features/tickets"
	usersfeature "github.com/dalemusser/shelterhub/internal/app/features/users"
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// corsMaxAge is how long browsers may cache a preflight response, in seconds.
const corsMaxAge = 300

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Public: /health, /metrics, the uploaded files, the login endpoint and the
// published news feed. Everything else under /api, and the chat WebSocket,
// requires a bearer token.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	svc := deps.Services
	if svc == nil {
		svc = &Services{}
	}

	tokens, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	// Fetch fresh user data on each request so role changes and disabled
	// accounts take effect immediately.
	tokens.SetUserFetcher(userstore.NewFetcher(db))

	files, err := uploads.NewLocal(appCfg.UploadDir, appCfg.UploadURL, int64(appCfg.UploadMaxMB)<<20)
	if err != nil {
		logger.Error("upload store init failed", zap.Error(err))
		return nil, err
	}

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(corsOptions(appCfg.CORSOrigins)))
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware)
		r.Handle("/metrics", svc.Metrics.Handler(logger))
	}

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	mountUploads(r, appCfg.UploadURL, appCfg.UploadDir, tokens)

	// Chat relay; the token comes from ?token= on the upgrade request.
	messagesHandler := messagesfeature.NewHandler(db, appCfg.CORSOrigins, logger)
	r.With(tokens.Authenticate).Get("/ws/chat", messagesHandler.ServeWS)

	limiter := svc.LoginLimiter
	newsHandler := newsfeature.NewHandler(db, files, logger)

	r.Route("/api", func(api chi.Router) {
		// Public
		loginHandler := loginfeature.NewHandler(db, tokens, limiter, auditLogger, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler, tokens))
		api.Mount("/public/news", newsfeature.PublicRoutes(newsHandler))

		api.Group(func(pr chi.Router) {
			pr.Use(tokens.Authenticate)

			pr.Mount("/profile", profilefeature.Routes(profilefeature.NewHandler(db, logger)))
			pr.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, auditLogger, logger)))
			pr.Mount("/beneficiaries", beneficiariesfeature.Routes(
				beneficiariesfeature.NewHandler(db, files, auditLogger, appCfg.ImportMaxRows, logger)))
			pr.Mount("/stock", foodstockfeature.Routes(foodstockfeature.NewHandler(db, auditLogger, logger)))
			pr.Mount("/distributions", distributionsfeature.Routes(distributionsfeature.NewHandler(db, logger)))
			pr.Mount("/pharmacy", pharmacyfeature.Routes(pharmacyfeature.NewHandler(db, auditLogger, logger)))

			exitHandler := exitlogsfeature.NewHandler(db, logger)
			pr.Mount("/exits", exitlogsfeature.Routes(exitHandler))
			pr.Mount("/visits", exitlogsfeature.VisitRoutes(exitHandler))

			pr.Mount("/attendance", attendancefeature.Routes(attendancefeature.NewHandler(db, logger)))
			pr.Mount("/announcements", announcementsfeature.Routes(announcementsfeature.NewHandler(db, logger)))
			pr.Mount("/news", newsfeature.Routes(newsHandler))
			pr.Mount("/approvals", approvalsfeature.Routes(approvalsfeature.NewHandler(db, auditLogger, logger)))
			pr.Mount("/schedules", schedulesfeature.Routes(schedulesfeature.NewHandler(db, logger)))
			pr.Mount("/tickets", ticketsfeature.Routes(ticketsfeature.NewHandler(db, logger)))
			pr.Mount("/messages", messagesfeature.Routes(messagesHandler))
			pr.Mount("/reports", reportsfeature.Routes(reportsfeature.NewHandler(db, logger)))
			pr.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger)))
		})

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.NotFound(w, "Route not found")
		})
	})

	logger.Info("routes mounted",
		zap.Bool("metrics", svc.Metrics != nil),
		zap.String("uploads", appCfg.UploadURL),
		zap.Strings("cors_origins", appCfg.CORSOrigins))
	return r, nil
}

// corsOptions allows the configured origins, or any origin when the list is
// empty or contains "*". Credentials are only allowed for explicit origins.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:         corsMaxAge,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		return opts
	}
	opts.AllowedOrigins = origins
	opts.AllowCredentials = true
	return opts
}

// mountUploads serves uploaded files. News images are public; beneficiary
// documents and photos need a token.
func mountUploads(r chi.Router, baseURL, dir string, tokens *auth.Manager) {
	files := fileserver.Handler(baseURL, dir)
	r.Handle(baseURL+"/"+uploads.KindNews+"/*", files)
	r.With(tokens.AuthenticateFiles).Handle(baseURL+"/*", files)
}
