// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MTA Hub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MTAHUB_MONGO_URI, MTAHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mtahub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mtahub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public origin used for OAuth callbacks"},

	// Email/SMTP configuration
	{Name: "smtp_host", Default: "", Desc: "SMTP server host (blank logs email instead of sending)"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "smtp_tls", Default: "mandatory", Desc: "SMTP TLS policy: mandatory, opportunistic, ssl or none"},
	{Name: "mail_from", Default: "noreply@example.org", Desc: "From email address"},
	{Name: "mail_from_name", Default: "MTA", Desc: "From display name"},
	{Name: "payment_email", Default: "", Desc: "e-Transfer destination when site settings have none"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Background work
	{Name: "outbox_interval", Default: "15s", Desc: "How often the outbox worker polls for due email"},
	{Name: "outbox_max_attempts", Default: 5, Desc: "Delivery attempts before an email is marked failed"},
	{Name: "expiry_sweep_interval", Default: "1h", Desc: "How often lapsed memberships are marked expired (0 disables)"},

	// Audit logging
	{Name: "audit_log_mode", Default: "all", Desc: "Audit logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Tracing
	{Name: "otel_endpoint", Default: "", Desc: "OTLP/HTTP collector host:port (blank disables tracing export)"},
	{Name: "otel_insecure", Default: false, Desc: "Use plain HTTP to the collector"},

	// Registration rate limit
	{Name: "register_rate", Default: "1m", Desc: "Window for the per-IP registration limit"},
	{Name: "register_burst", Default: 5, Desc: "Registrations allowed per IP per window"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries"},
	{Name: "timeout_long", Default: "20s", Desc: "Timeout for reports and aggregations"},
	{Name: "timeout_sweep", Default: "2m", Desc: "Timeout for the expiry sweep"},
}

var (
	auditModes = []string{"all", "db", "log", "off"}
	tlsModes   = []string{"mandatory", "opportunistic", "ssl", "none"}
)

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// MTAHUB_* environment variables and flags, merging with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MTAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 12*time.Hour),

		BaseURL: appValues.String("base_url"),

		SMTPHost:     appValues.String("smtp_host"),
		SMTPPort:     appValues.Int("smtp_port"),
		SMTPUser:     appValues.String("smtp_user"),
		SMTPPass:     appValues.String("smtp_pass"),
		SMTPTLS:      strings.ToLower(appValues.String("smtp_tls")),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		PaymentEmail: appValues.String("payment_email"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		OutboxInterval:      appValues.Duration("outbox_interval", 15*time.Second),
		OutboxMaxAttempts:   appValues.Int("outbox_max_attempts"),
		ExpirySweepInterval: appValues.Duration("expiry_sweep_interval", time.Hour),

		AuditLogMode: strings.ToLower(appValues.String("audit_log_mode")),

		OTelEndpoint: appValues.String("otel_endpoint"),
		OTelInsecure: appValues.Bool("otel_insecure"),

		RegisterRate:  appValues.Duration("register_rate", time.Minute),
		RegisterBurst: appValues.Int("register_burst"),

		Timeouts: TimeoutConfig{
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
			Sweep:  appValues.Duration("timeout_sweep", timeouts.DefaultSweep),
		},
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. An error aborts
// startup before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		errs = append(errs, errors.New("session_key must be at least 32 bytes in prod"))
	}
	if !oneOf(appCfg.AuditLogMode, auditModes) {
		errs = append(errs, fmt.Errorf("audit_log_mode %q must be one of %s", appCfg.AuditLogMode, strings.Join(auditModes, ", ")))
	}
	if !oneOf(appCfg.SMTPTLS, tlsModes) {
		errs = append(errs, fmt.Errorf("smtp_tls %q must be one of %s", appCfg.SMTPTLS, strings.Join(tlsModes, ", ")))
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		errs = append(errs, errors.New("google_client_id and google_client_secret must be set together"))
	}
	if appCfg.RegisterBurst < 1 {
		errs = append(errs, errors.New("register_burst must be at least 1"))
	}
	if appCfg.OutboxMaxAttempts < 1 {
		errs = append(errs, errors.New("outbox_max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
