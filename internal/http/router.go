// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, locale routing, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Pages are never routes: they fall through to NoRoute after the edge
//     classifier has settled the locale
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

	_ "github.com/bitx-studio/landing-backend/docs"
	"github.com/bitx-studio/landing-backend/internal/config"
	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/http/handlers"
	"github.com/bitx-studio/landing-backend/internal/http/middleware"
	"github.com/bitx-studio/landing-backend/internal/ratelimit"
	"github.com/bitx-studio/landing-backend/internal/repo"
	"github.com/bitx-studio/landing-backend/internal/services"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// receiptShim adapts the repository free functions to the
// handlers.ReceiptStore interface expected by the lead handler.
type receiptShim struct{ db *gorm.DB }

// Get proxies repo.GetReceipt.
func (s receiptShim) Get(ctx context.Context, scope, key string, now time.Time) (*domain.LeadReceipt, error) {
	return repo.GetReceipt(ctx, s.db, scope, key, now)
}

// Create proxies repo.CreateReceipt. Losing a race to a concurrent retry is
// not an error: the first receipt wins.
func (s receiptShim) Create(ctx context.Context, scope, key string, status int, d domain.Delivered, ttl time.Duration) error {
	_, err := repo.CreateReceipt(ctx, s.db, scope, key, status, d, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// exists is the idempotency lookup backed by the receipt table.
func (s receiptShim) exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	rec, err := repo.GetReceipt(ctx, s.db, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// limiter enforces the per-visitor lead window; deliverer fans leads out to
// the configured channels. A nil db disables Idempotency-Key replay.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Compression
//  7. Metrics
//  8. CORS and Security headers
//  9. Edge classifier (locale redirect + tracking cookies)
//
// Under /api only:
//  10. Idempotency validator (before rate limiter to allow bypass on replay)
//  11. Token-bucket rate limiter (per client, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, limiter ratelimit.Store, deliverer services.Deliverer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		SkipPaths:   []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 10
	}
	r.Use(limitBody(maxBody))

	// 6) Compress pages and JSON; scrapes stay plain
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics
	r.Use(middleware.Metrics())

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "Retry-After", handlers.HeaderIdempotencyReplayed,
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{"/api"},
		EnablePolicy:    true,
		ReferrerPolicy:  cfg.Security.ReferrerPolicy,
	}))

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 9) Locale routing and first-touch tracking for page requests
	r.Use(middleware.EdgeClassifier(middleware.EdgeOptions{
		DefaultLocale: cfg.Site.DefaultLocale,
		Capture: tracking.Capture{
			Cookies: tracking.CookieOptions{Secure: cfg.Site.CookieSecure},
		},
	}))

	// Dependency injection: services ← limiter/deliverer, receipts ← db
	brand := cfg.Delivery.Brand
	leadSvc := &services.LeadService{
		Limiter:   limiter,
		Deliverer: deliverer,
		Brand:     brand,
	}
	fallbackSvc := &services.FallbackService{Phone: cfg.Site.WhatsAppPhone, Brand: brand}

	opts := handlers.Options{
		IdempotencyTTL: cfg.IdempotencyTTL,
		Site: handlers.SiteInfo{
			Brand:         brand,
			DefaultLocale: cfg.Site.DefaultLocale,
			AnalyticsID:   cfg.Site.AnalyticsID,
			ContactEmail:  cfg.Site.ContactEmail,
			StaticDir:     cfg.Site.StaticDir,
		},
	}
	var lookup middleware.IdempotencyLookup
	if db != nil {
		receipts := receiptShim{db: db}
		opts.Receipts = receipts
		lookup = receipts.exists
	}
	h := handlers.New(leadSvc, fallbackSvc, opts)

	// Fallbacks: anything unrouted may be a page or a static file
	r.NoRoute(h.Page)
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed)
	})

	// Public API
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClient())
	api := r.Group("/api")
	api.Use(
		// 10) Idempotency validation (before rate limiting)
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup),
		// 11) Token-bucket rate limiter per client
		rl.Handler(),
	)
	{
		api.POST("/lead", h.SubmitLead)
		api.POST("/lead/fallback", h.LeadFallback)
		api.GET("/site", h.Site)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
