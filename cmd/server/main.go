// Command server runs the MoneyWise API together with the reminder scheduler.
//
//	@title						MoneyWise API
//	@version					1.0
//	@description				Personal finance API: expenses, budgets, savings goals, payment reminders and AI analysis.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 JWT as "Bearer <token>"
//	@securityDefinitions.apikey	CronSecret
//	@in							header
//	@name						Authorization
//	@description				Scheduler secret as "Bearer <CRON_SECRET>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "github.com/tbourn/moneywise/docs"
	"github.com/tbourn/moneywise/internal/config"
	"github.com/tbourn/moneywise/internal/gate"
	"github.com/tbourn/moneywise/internal/genai"
	httpapi "github.com/tbourn/moneywise/internal/http"
	"github.com/tbourn/moneywise/internal/mailer"
	"github.com/tbourn/moneywise/internal/observability"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
	"github.com/tbourn/moneywise/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout     = 20 * time.Second
	idempotencyPurgeInt = time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	gw := gate.NewGateway(
		gate.NewFixedWindowLimiter(cfg.Gate.RateLimit, cfg.Gate.RateWindow),
		gate.NewCache(cfg.Gate.CacheTTL, cfg.Gate.SweepThreshold),
		genai.WithRetry(genai.NewClient(cfg.AI), cfg.AI.MaxAttempts, cfg.AI.RetryBaseDelay),
		services.RenderAnalysisPrompt,
	)
	notifier := services.NewReminderNotifier(db, mailer.New(cfg.Mail), cfg.Reminders.Location())

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Collaborators{Analyzer: gw, Notifier: notifier})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		return notifier.Run(gctx, cfg.Reminders.Interval)
	})
	g.Go(func() error {
		purgeIdempotency(gctx, db, idempotencyPurgeInt)
		return nil
	})
	return g.Wait()
}

// purgeIdempotency deletes expired idempotency records every interval until
// ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("idempotency records purged")
			}
		}
	}
}
