// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: coursehub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Session tokens
	TokenSecret string        // HS256 signing secret, at least 32 characters
	TokenTTL    time.Duration // token and cookie lifetime

	// Catalog paging
	PageDefaultLimit int
	PageMaxLimit     int

	// Login throttling, per client IP
	LoginRatePerMinute int

	// Google OAuth (both blank disables Google sign-in)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL used to build the OAuth callback, e.g. "https://coursehub.example.com"
	BaseURL string

	// Audit logging destinations: all | db | log | off
	AuditLogAuth    string
	AuditLogCatalog string

	// Store call deadlines (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
