// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devSessionKey  = "dev-only-change-me-please-0123456789ABCDEF"
	devTokenSecret = "dev-only-token-secret-change-me-0123456789"
)

// appConfigKeys defines the configuration keys for CourseHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COURSEHUB_MONGO_URI, COURSEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "coursehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "coursehub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Session tokens
	{Name: "token_secret", Default: devTokenSecret, Desc: "HS256 secret for session tokens (32+ chars)"},
	{Name: "token_ttl", Default: "24h", Desc: "Session token lifetime (e.g., 24h, 90m)"},

	// Catalog paging
	{Name: "page_default_limit", Default: 10, Desc: "Courses per page when no limit is given"},
	{Name: "page_max_limit", Default: 100, Desc: "Largest accepted page size"},

	// Login throttling
	{Name: "login_rate_per_minute", Default: 10, Desc: "Sign-in attempts allowed per client IP per minute"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Base URL for the OAuth callback
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL of this service"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_catalog", Default: "all", Desc: "Catalog event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list and multi-step store calls"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for course deletion cleanup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COURSEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COURSEHUB", appConfigKeys)
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

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		PageDefaultLimit: appValues.Int("page_default_limit"),
		PageMaxLimit:     appValues.Int("page_max_limit"),

		LoginRatePerMinute: appValues.Int("login_rate_per_minute"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),

		AuditLogAuth:    strings.ToLower(appValues.String("audit_log_auth")),
		AuditLogCatalog: strings.ToLower(appValues.String("audit_log_catalog")),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Every problem found is reported, not just the first.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		problems = append(problems, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if appCfg.MongoDatabase == "" {
		problems = append(problems, errors.New("mongo_database is required"))
	}

	if len(appCfg.TokenSecret) < 32 {
		problems = append(problems, errors.New("token_secret must be at least 32 characters"))
	}
	if appCfg.SessionKey == "" {
		problems = append(problems, errors.New("session_key is required"))
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey {
			problems = append(problems, errors.New("session_key must be changed in production"))
		}
		if appCfg.TokenSecret == devTokenSecret {
			problems = append(problems, errors.New("token_secret must be changed in production"))
		}
	}
	if appCfg.TokenTTL <= 0 {
		problems = append(problems, errors.New("token_ttl must be positive"))
	}

	if appCfg.PageDefaultLimit < 1 || appCfg.PageMaxLimit < 1 {
		problems = append(problems, errors.New("page limits must be at least 1"))
	} else if appCfg.PageDefaultLimit > appCfg.PageMaxLimit {
		problems = append(problems, errors.New("page_default_limit cannot exceed page_max_limit"))
	}
	if appCfg.LoginRatePerMinute < 1 {
		problems = append(problems, errors.New("login_rate_per_minute must be at least 1"))
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		problems = append(problems, errors.New("google_client_id and google_client_secret must be set together"))
	}
	if appCfg.GoogleEnabled() && appCfg.BaseURL == "" {
		problems = append(problems, errors.New("base_url is required for Google sign-in"))
	}

	for key, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_catalog": appCfg.AuditLogCatalog,
	} {
		if v != "" && !auditlog.ValidDest(v) {
			problems = append(problems, fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v))
		}
	}

	return errors.Join(problems...)
}
