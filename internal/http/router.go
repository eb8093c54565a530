// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, compression, security headers, authentication, idempotency and edge
// rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/config"
	"github.com/tbourn/moneywise/internal/http/handlers"
	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
)

// maxBodyBytes caps every request body (1 MiB).
const maxBodyBytes = 1 << 20

// idempotencyStore adapts the repository helpers to handlers.IdempotencyStore
// and middleware.IdempotencyLookup.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Remember stores the outcome of a keyed create. A concurrent duplicate is
// not an error: the first record wins.
func (s idempotencyStore) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Lookup reports the resource created by an earlier request with the key.
func (s idempotencyStore) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Collaborators are the long-lived objects built in main and shared with
// background jobs. The CRUD services are built here from the database.
type Collaborators struct {
	Analyzer services.Analyzer
	Notifier *services.ReminderNotifier
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, compression and security headers
//
// and on the API group:
//  8. Auth (caller identity)
//  9. Idempotency validator (before the rate limiter so replays bypass it)
//  10. Rate limiter (per user, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, collab Collaborators) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.NewRedactor("X-Api-Key")))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", healthz(db))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	users := services.NewUserService(db)
	h := handlers.New(handlers.Deps{
		Expenses:    services.NewExpenseService(db),
		Budgets:     services.NewBudgetService(db),
		Savings:     services.NewSavingsService(db),
		Reminders:   services.NewReminderService(db),
		Notifier:    collab.Notifier,
		Analysis:    services.NewAnalysisService(db, collab.Analyzer),
		Idempotency: idem,
		ExpenseStats: func(ctx context.Context, userID string, f repo.ExpenseFilter) (int64, *time.Time, error) {
			return repo.ExpensesStats(ctx, db, userID, f)
		},
		ReminderStats: func(ctx context.Context, userID string) (int64, *time.Time, error) {
			return repo.RemindersStats(ctx, db, userID)
		},
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.JWTIssuer,
		OnAuthenticated: func(ctx context.Context, userID string, claims *middleware.Claims) error {
			return users.Touch(ctx, userID, claims.Email, claims.DisplayName())
		},
	}))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.Lookup))
	api.Use(rl.Handler())
	{
		api.POST("/expenses", h.CreateExpense)
		api.GET("/expenses", h.ListExpenses)
		api.GET("/expenses/:id", h.GetExpense)
		api.PUT("/expenses/:id", h.UpdateExpense)
		api.DELETE("/expenses/:id", h.DeleteExpense)

		api.POST("/budgets", h.CreateBudget)
		api.GET("/budgets", h.ListBudgets)
		api.GET("/budgets/status", h.BudgetStatus)
		api.PUT("/budgets/:id", h.UpdateBudget)
		api.DELETE("/budgets/:id", h.DeleteBudget)

		api.POST("/savings", h.CreateSavingsGoal)
		api.GET("/savings", h.ListSavingsGoals)
		api.PUT("/savings/:id", h.UpdateSavingsGoal)
		api.DELETE("/savings/:id", h.DeleteSavingsGoal)
		api.POST("/savings/:id/contributions", h.ContributeSavingsGoal)

		api.POST("/reminders", h.CreateReminder)
		api.GET("/reminders", h.ListReminders)
		api.POST("/reminders/process", h.ProcessMyReminders)
		api.GET("/reminders/:id", h.GetReminder)
		api.PUT("/reminders/:id", h.UpdateReminder)
		api.DELETE("/reminders/:id", h.DeleteReminder)
		api.POST("/reminders/:id/paid", h.MarkReminderPaid)
		api.POST("/reminders/:id/send", h.SendReminder)

		api.POST("/analysis", h.Analyze)
	}

	r.POST("/cron/reminders", middleware.CronSecret(cfg.Reminders.CronSecret), h.ProcessAllReminders)
}

// corsMiddleware allows every origin when none are configured, otherwise
// only the listed ones.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

// healthz reports whether the database answers a ping.
func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body size using http.MaxBytesReader. Requests
// exceeding the cap fail when the body is read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
