// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, site settings, storage, lead rate limiting, delivery channels and
// observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS     bool
	HSTSMaxAge     time.Duration
	ReferrerPolicy string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "landing-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SiteConfig holds what the landing pages need to know about themselves.
type SiteConfig struct {
	DefaultLocale domain.Locale // DEFAULT_LOCALE, ru|en
	CookieSecure  bool          // COOKIE_SECURE
	StaticDir     string        // STATIC_DIR, built pages; empty serves a minimal shell
	AnalyticsID   string        // NEXT_PUBLIC_GA_ID, empty disables client tracking
	WhatsAppPhone string        // WHATSAPP_PHONE, empty disables the chat fallback
	ContactEmail  string        // CONTACT_EMAIL
}

// LeadLimitConfig configures the fixed-window limiter on lead submissions.
type LeadLimitConfig struct {
	Limit         int           // LEAD_RATE_LIMIT
	Window        time.Duration // LEAD_RATE_WINDOW
	Backend       string        // RATE_LIMIT_BACKEND, memory|redis
	SweepInterval time.Duration // SWEEP_INTERVAL, memory backend only
}

// RedisConfig configures the optional shared limiter store.
type RedisConfig struct {
	Addr     string // REDIS_ADDR
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// DeliveryConfig configures the lead delivery channels.
type DeliveryConfig struct {
	Brand   string        // LEAD_BRAND
	Timeout time.Duration // DELIVERY_TIMEOUT, per outbound call

	TelegramToken   string // TELEGRAM_BOT_TOKEN
	TelegramChatID  string // TELEGRAM_CHAT_ID
	TelegramAPIBase string // TELEGRAM_API_BASE

	EmailProvider string // EMAIL_PROVIDER, smtp|resend
	SMTPHost      string // SMTP_HOST
	SMTPPort      int    // SMTP_PORT
	SMTPUser      string // SMTP_USER
	SMTPPass      string // SMTP_PASS
	LeadsTo       string // LEADS_TO_EMAIL
	LeadsFrom     string // LEADS_FROM_EMAIL
	ResendAPIKey  string // RESEND_API_KEY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	Site SiteConfig

	// Storage
	DBPath         string        // SQLite path
	IdempotencyTTL time.Duration // how long a lead receipt can be replayed

	// API-wide token bucket
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	LeadLimit LeadLimitConfig
	Redis     RedisConfig
	Delivery  DeliveryConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 64<<10)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		Site: SiteConfig{
			DefaultLocale: domain.Locale(strings.ToLower(getenv("DEFAULT_LOCALE", string(domain.DefaultLocale)))),
			CookieSecure:  getbool("COOKIE_SECURE", true),
			StaticDir:     strings.TrimSpace(getenv("STATIC_DIR", "")),
			AnalyticsID:   strings.TrimSpace(getenv("NEXT_PUBLIC_GA_ID", "")),
			WhatsAppPhone: strings.TrimSpace(getenv("WHATSAPP_PHONE", "")),
			ContactEmail:  strings.TrimSpace(getenv("CONTACT_EMAIL", "")),
		},

		// Storage
		DBPath:         getenv("DB_PATH", "landing.db"),
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// API-wide token bucket
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 20),

		LeadLimit: LeadLimitConfig{
			Limit:         getint("LEAD_RATE_LIMIT", 5),
			Window:        getdur("LEAD_RATE_WINDOW", 10*time.Minute),
			Backend:       strings.ToLower(getenv("RATE_LIMIT_BACKEND", "memory")),
			SweepInterval: getdur("SWEEP_INTERVAL", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		Delivery: DeliveryConfig{
			Brand:   getenv("LEAD_BRAND", "BITX"),
			Timeout: getdur("DELIVERY_TIMEOUT", 10*time.Second),

			TelegramToken:   strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN", "")),
			TelegramChatID:  strings.TrimSpace(getenv("TELEGRAM_CHAT_ID", "")),
			TelegramAPIBase: getenv("TELEGRAM_API_BASE", "https://api.telegram.org"),

			EmailProvider: strings.ToLower(getenv("EMAIL_PROVIDER", "smtp")),
			SMTPHost:      strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:      getint("SMTP_PORT", 587),
			SMTPUser:      strings.TrimSpace(getenv("SMTP_USER", "")),
			SMTPPass:      getenv("SMTP_PASS", ""),
			LeadsTo:       strings.TrimSpace(getenv("LEADS_TO_EMAIL", "")),
			LeadsFrom:     strings.TrimSpace(getenv("LEADS_FROM_EMAIL", "")),
			ResendAPIKey:  strings.TrimSpace(getenv("RESEND_API_KEY", "")),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS:     getbool("ENABLE_HSTS", false),
			HSTSMaxAge:     getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			ReferrerPolicy: getenv("REFERRER_POLICY", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "landing-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	return cfg, cfg.validate()
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if c.Delivery.SMTPPort <= 0 {
		c.Delivery.SMTPPort = 587
	}
	c.Delivery.TelegramAPIBase = strings.TrimRight(strings.TrimSpace(c.Delivery.TelegramAPIBase), "/")
}

// validate returns the first rule the configuration breaks.
func (c Config) validate() error {
	_, localeOK := domain.ParseLocale(string(c.Site.DefaultLocale))
	rules := []struct {
		broken bool
		msg    string
	}{
		{!oneOf(c.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"), "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{c.MaxBodyBytes <= 0, "MAX_BODY_BYTES must be > 0"},
		{!localeOK, "DEFAULT_LOCALE must be one of: ru, en"},
		{strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.LeadLimit.Limit < 1, "LEAD_RATE_LIMIT must be >= 1"},
		{c.LeadLimit.Window <= 0, "LEAD_RATE_WINDOW must be > 0"},
		{!oneOf(c.LeadLimit.Backend, "memory", "redis"), "RATE_LIMIT_BACKEND must be one of: memory, redis"},
		{c.LeadLimit.Backend == "memory" && c.LeadLimit.SweepInterval <= 0, "SWEEP_INTERVAL must be > 0"},
		{c.LeadLimit.Backend == "redis" && c.Redis.Addr == "", "REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"},
		{c.Delivery.Timeout <= 0, "DELIVERY_TIMEOUT must be > 0"},
		{!oneOf(c.Delivery.EmailProvider, "smtp", "resend"), "EMAIL_PROVIDER must be one of: smtp, resend"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	for _, r := range rules {
		if r.broken {
			return errors.New(r.msg)
		}
	}
	return nil
}

// TelegramConfigured reports whether both Telegram settings are present.
func (d DeliveryConfig) TelegramConfigured() bool {
	return d.TelegramToken != "" && d.TelegramChatID != ""
}

// EmailConfigured reports whether the selected email provider has what it
// needs to send.
func (d DeliveryConfig) EmailConfigured() bool {
	if d.LeadsTo == "" {
		return false
	}
	if d.EmailProvider == "resend" {
		return d.ResendAPIKey != "" && d.LeadsFrom != ""
	}
	return d.SMTPHost != "" && d.SMTPUser != "" && d.SMTPPass != ""
}

// Env readers. An unset, empty or unparsable variable yields the default.

func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(strings.TrimSpace(v), 64) })
}

func getint(k string, def int) int {
	return lookup(k, def, func(v string) (int, error) { return strconv.Atoi(strings.TrimSpace(v)) })
}

func getdur(k string, def time.Duration) time.Duration {
	return lookup(k, def, func(v string) (time.Duration, error) { return time.ParseDuration(strings.TrimSpace(v)) })
}

var errNotBool = errors.New("not a boolean")

func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// splitCSV splits a comma list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
