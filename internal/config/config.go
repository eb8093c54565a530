// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database access, authentication, the
// analysis gateway, reminder scheduling, mail delivery and observability.
package config

import (
	"errors"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "moneywise")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the database driver and its location.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	DSN    string // Postgres DSN
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string // optional; checked when set
}

// GateConfig tunes the per-user analysis rate limit and response cache.
type GateConfig struct {
	RateLimit      int           // admissions per window
	RateWindow     time.Duration // fixed window length
	CacheTTL       time.Duration
	SweepThreshold int // entry count above which set() sweeps expired entries
}

// AIConfig configures the OpenAI-compatible completion endpoint.
type AIConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration // per attempt
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// ReminderConfig configures the reminder scheduler.
type ReminderConfig struct {
	Interval   time.Duration // 0 disables the in-process loop
	Timezone   string        // IANA name used for calendar-day math
	CronSecret string        // bearer secret for POST /cron/reminders
}

// MailConfig configures outbound e-mail. An empty Host selects the log mailer.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	DialTimeout time.Duration
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
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	DB   DBConfig
	Auth AuthConfig

	// Edge rate limiting (token bucket, all API routes)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	Gate      GateConfig
	AI        AIConfig
	Reminders ReminderConfig
	Mail      MailConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "moneywise.db"),
			DSN:    getenv("DB_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getenv("JWT_SECRET", ""),
			JWTIssuer: getenv("JWT_ISSUER", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		Gate: GateConfig{
			RateLimit:      getint("AI_RATE_LIMIT", 10),
			RateWindow:     getdur("AI_RATE_WINDOW", 60*time.Second),
			CacheTTL:       getdur("AI_CACHE_TTL", time.Hour),
			SweepThreshold: getint("AI_CACHE_SWEEP_THRESHOLD", 1000),
		},
		AI: AIConfig{
			BaseURL:        strings.TrimRight(getenv("AI_BASE_URL", "https://api.openai.com/v1"), "/"),
			APIKey:         getenv("AI_API_KEY", ""),
			Model:          getenv("AI_MODEL", "gpt-4o-mini"),
			Timeout:        getdur("AI_TIMEOUT", 30*time.Second),
			MaxAttempts:    getint("AI_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getdur("AI_RETRY_BASE_DELAY", time.Second),
		},
		Reminders: ReminderConfig{
			Interval:   getdur("REMINDER_INTERVAL", time.Hour),
			Timezone:   getenv("REMINDER_TIMEZONE", "UTC"),
			CronSecret: getenv("CRON_SECRET", ""),
		},
		Mail: MailConfig{
			Host:        getenv("SMTP_HOST", ""),
			Port:        getint("SMTP_PORT", 587),
			Username:    getenv("SMTP_USERNAME", ""),
			Password:    getenv("SMTP_PASSWORD", ""),
			From:        getenv("MAIL_FROM", "MoneyWise <no-reply@moneywise.local>"),
			DialTimeout: getdur("SMTP_DIAL_TIMEOUT", 10*time.Second),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "moneywise"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Gate.RateLimit < 1 {
		return cfg, errors.New("AI_RATE_LIMIT must be >= 1")
	}
	if cfg.Gate.RateWindow <= 0 || cfg.Gate.CacheTTL <= 0 {
		return cfg, errors.New("AI_RATE_WINDOW and AI_CACHE_TTL must be > 0")
	}
	if cfg.Gate.SweepThreshold < 1 {
		return cfg, errors.New("AI_CACHE_SWEEP_THRESHOLD must be >= 1")
	}
	if cfg.AI.BaseURL == "" {
		return cfg, errors.New("AI_BASE_URL must not be empty")
	}
	if cfg.AI.Timeout <= 0 || cfg.AI.RetryBaseDelay < 0 {
		return cfg, errors.New("AI_TIMEOUT must be > 0 and AI_RETRY_BASE_DELAY >= 0")
	}
	if cfg.AI.MaxAttempts < 1 {
		return cfg, errors.New("AI_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Reminders.Interval < 0 {
		return cfg, errors.New("REMINDER_INTERVAL must be >= 0")
	}
	if _, err := time.LoadLocation(cfg.Reminders.Timezone); err != nil {
		return cfg, errors.New("REMINDER_TIMEZONE must be a valid IANA time zone")
	}
	if cfg.Mail.Host != "" && (cfg.Mail.Port <= 0 || cfg.Mail.Port > 65535) {
		return cfg, errors.New("SMTP_PORT must be in 1..65535")
	}
	if cfg.Mail.Host != "" && cfg.Mail.DialTimeout <= 0 {
		return cfg, errors.New("SMTP_DIAL_TIMEOUT must be > 0")
	}
	if _, err := mail.ParseAddress(cfg.Mail.From); err != nil {
		return cfg, errors.New("MAIL_FROM must be an address such as \"Name <user@host>\"")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// Location returns the reminder time zone. Load has already validated it.
func (r ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
