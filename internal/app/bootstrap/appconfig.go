// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for MTA Hub.
//
// These values come from environment variables (MTAHUB_*), configuration
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers the framework-level settings (ports, TLS, log level, CORS).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (32+ bytes in production)
	SessionName   string        // Cookie name (default: mtahub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Public origin, used for the OAuth callback URL.
	BaseURL string

	// Email/SMTP configuration. An empty SMTPHost logs mail instead of sending.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SMTPTLS      string // mandatory | opportunistic | ssl | none
	MailFrom     string
	MailFromName string

	// e-Transfer destination used when site settings do not name one.
	PaymentEmail string

	// Google OAuth configuration. Both empty disables Google sign-in.
	GoogleClientID     string
	GoogleClientSecret string

	// Background work
	OutboxInterval      time.Duration
	OutboxMaxAttempts   int
	ExpirySweepInterval time.Duration // 0 disables the in-process sweep

	// Audit logging: all | db | log | off
	AuditLogMode string

	// OpenTelemetry: host:port of an OTLP/HTTP collector. Empty disables export.
	OTelEndpoint string
	OTelInsecure bool

	// Public registration rate limit: RegisterBurst requests per RegisterRate window.
	RegisterRate  time.Duration
	RegisterBurst int

	// DB operation timeouts
	Timeouts TimeoutConfig
}

// TimeoutConfig mirrors timeouts.Config with configurable values.
type TimeoutConfig struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Sweep  time.Duration
}
