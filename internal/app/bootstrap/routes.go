// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	"github.com/dalemusser/coursehub/internal/app/enrollment"
	authgooglefeature "github.com/dalemusser/coursehub/internal/app/features/authgoogle"
	cartfeature "github.com/dalemusser/coursehub/internal/app/features/cart"
	coursesfeature "github.com/dalemusser/coursehub/internal/app/features/courses"
	errorsfeature "github.com/dalemusser/coursehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/coursehub/internal/app/features/health"
	profilefeature "github.com/dalemusser/coursehub/internal/app/features/profile"
	purchasesfeature "github.com/dalemusser/coursehub/internal/app/features/purchases"
	sessionfeature "github.com/dalemusser/coursehub/internal/app/features/session"
	auditstore "github.com/dalemusser/coursehub/internal/app/store/audit"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	"github.com/dalemusser/coursehub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/metrics"
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"github.com/dalemusser/coursehub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// userStore is everything the features need from the user collection.
type userStore interface {
	enrollment.UserStore
	sessionfeature.UserStore
}

// backends are the stores the router is built on. BuildHandler fills them
// from MongoDB; tests use the in-memory stores.
type backends struct {
	Courses enrollment.CourseStore
	Users   userStore
	Fetcher auth.UserFetcher
	Tx      enrollment.TxRunner
	States  authgooglefeature.StateStore
	Events  auditlog.EventStore
	DB      healthfeature.Pinger
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	return newRouter(appCfg, coreCfg.Env == "prod", backends{
		Courses: coursestore.New(db),
		Users:   userstore.New(db),
		Fetcher: userstore.NewFetcher(db),
		Tx:      txn.NewRunner(db, logger),
		States:  oauthstate.New(db),
		Events:  auditstore.New(db),
		DB:      deps.MongoClient,
	}, logger)
}

func newRouter(appCfg AppConfig, secure bool, be backends, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.TokenTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer(appCfg.TokenSecret, appCfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	sessionMgr.SetTokenIssuer(issuer)

	// LoadSessionUser re-reads the user on each request, so a newer login
	// or a logout invalidates older tokens immediately.
	sessionMgr.SetUserFetcher(be.Fetcher)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	audit := auditlog.New(be.Events, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Catalog: appCfg.AuditLogCatalog,
	})
	errLog := errorsfeature.NewErrorLogger(logger)

	cat := catalog.New(be.Courses, be.Users, logger)
	enroll := enrollment.New(be.Courses, be.Users, be.Tx, recorder, logger)

	limiter := ratelimit.New(appCfg.LoginRatePerMinute)
	onShutdown(limiter.Stop)

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check and metrics for load balancers and scrapers
	healthHandler := healthfeature.NewHandler(be.DB, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler(registry))

	// Authentication
	sessionHandler := sessionfeature.NewHandler(be.Users, sessionMgr, limiter, errLog, audit, logger)
	sessionfeature.MountRoutes(r, sessionHandler, sessionMgr)

	googleHandler := authgooglefeature.NewHandler(be.Users, be.States, sessionHandler, errLog, audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Catalog and course lifecycle
	coursesHandler := coursesfeature.NewHandler(cat, enroll, errLog, audit, logger)
	coursesfeature.MountRoutes(r, coursesHandler, sessionMgr)

	// Per-user lists and purchases
	cartHandler := cartfeature.NewHandler(enroll, errLog, logger)
	cartfeature.MountRoutes(r, cartHandler, sessionMgr)

	purchasesHandler := purchasesfeature.NewHandler(enroll, errLog, audit, logger)
	purchasesfeature.MountRoutes(r, purchasesHandler, sessionMgr)

	profileHandler := profilefeature.NewHandler(enroll, errLog, logger)
	r.Mount("/me", profilefeature.Routes(profileHandler, sessionMgr))

	logger.Info("routes mounted", zap.Bool("google_sign_in", appCfg.GoogleEnabled()))
	return r, nil
}
