// Command server runs the BITX landing backend: localized page routing with
// first-touch tracking, lead intake with chat-bot and email delivery, and the
// WhatsApp fallback.
//
// @title       BITX Landing API
// @version     1.0
// @description Lead intake, chat fallback and site context for the BITX landing pages.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/bitx-studio/landing-backend/internal/config"
	"github.com/bitx-studio/landing-backend/internal/delivery"
	httpapi "github.com/bitx-studio/landing-backend/internal/http"
	"github.com/bitx-studio/landing-backend/internal/observability"
	"github.com/bitx-studio/landing-backend/internal/ratelimit"
	"github.com/bitx-studio/landing-backend/internal/repo"
	"github.com/bitx-studio/landing-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	receiptPurgeInterval = time.Hour
	shutdownTimeout      = 15 * time.Second
	redisKeyPrefix       = "lead"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	if sysutil.IsTruthy(os.Getenv("LOG_PRETTY")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	limiter, closeLimiter, err := newLimiter(gctx, g, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	g.Go(func() error {
		purgeReceipts(gctx, db, receiptPurgeInterval)
		return nil
	})

	dispatcher := newDispatcher(cfg.Delivery)
	logDelivery(cfg.Delivery)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, limiter, dispatcher, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// newLimiter returns the lead window store. The Redis store fails open so a
// cache outage never blocks leads; the memory store is swept on g.
func newLimiter(ctx context.Context, g *errgroup.Group, cfg config.Config) (ratelimit.Store, func(), error) {
	policy := ratelimit.Policy{Limit: cfg.LeadLimit.Limit, Window: cfg.LeadLimit.Window}

	if cfg.LeadLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("lead limiter: redis")
		store := ratelimit.FailOpen{
			Store:  ratelimit.NewRedisStore(client, policy, redisKeyPrefix),
			Policy: policy,
		}
		return store, func() { _ = client.Close() }, nil
	}

	store := ratelimit.NewMemoryStore(policy)
	g.Go(func() error {
		store.Run(ctx, cfg.LeadLimit.SweepInterval)
		return nil
	})
	log.Info().Msg("lead limiter: memory")
	return store, func() {}, nil
}

func newDispatcher(cfg config.DeliveryConfig) *delivery.Dispatcher {
	d := &delivery.Dispatcher{
		Telegram: delivery.NewTelegram(delivery.TelegramConfig{
			Token:   cfg.TelegramToken,
			ChatID:  cfg.TelegramChatID,
			APIBase: cfg.TelegramAPIBase,
		}, &http.Client{Timeout: cfg.Timeout}),
		Timeout: cfg.Timeout,
	}
	switch cfg.EmailProvider {
	case "resend":
		d.Email = delivery.NewResend(delivery.ResendConfig{
			APIKey: cfg.ResendAPIKey,
			To:     cfg.LeadsTo,
			From:   cfg.LeadsFrom,
		})
	default:
		d.Email = delivery.NewSMTP(delivery.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			To:       cfg.LeadsTo,
			From:     cfg.LeadsFrom,
		})
	}
	return d
}

func logDelivery(cfg config.DeliveryConfig) {
	tg, email := cfg.TelegramConfigured(), cfg.EmailConfigured()
	if !tg && !email {
		log.Warn().Str("email_provider", cfg.EmailProvider).
			Msg("no delivery channel configured; leads will be answered with 501")
		return
	}
	log.Info().
		Bool("telegram", tg).
		Bool("email", email).
		Str("email_provider", cfg.EmailProvider).
		Msg("delivery channels")
}

// purgeReceipts deletes expired idempotency receipts every interval.
func purgeReceipts(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredReceipts(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge receipts")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged expired receipts")
			}
		}
	}
}
