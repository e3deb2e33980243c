// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	aboutfeature "github.com/mta-community/mtahub/internal/app/features/about"
	auditlogfeature "github.com/mta-community/mtahub/internal/app/features/auditlog"
	authgooglefeature "github.com/mta-community/mtahub/internal/app/features/authgoogle"
	contentfeature "github.com/mta-community/mtahub/internal/app/features/content"
	healthfeature "github.com/mta-community/mtahub/internal/app/features/health"
	loginfeature "github.com/mta-community/mtahub/internal/app/features/login"
	logoutfeature "github.com/mta-community/mtahub/internal/app/features/logout"
	membersfeature "github.com/mta-community/mtahub/internal/app/features/members"
	notificationsfeature "github.com/mta-community/mtahub/internal/app/features/notifications"
	outboxfeature "github.com/mta-community/mtahub/internal/app/features/outbox"
	paymentsfeature "github.com/mta-community/mtahub/internal/app/features/payments"
	registrationfeature "github.com/mta-community/mtahub/internal/app/features/registration"
	settingsfeature "github.com/mta-community/mtahub/internal/app/features/settings"
	sponsorportalfeature "github.com/mta-community/mtahub/internal/app/features/sponsorportal"
	statsfeature "github.com/mta-community/mtahub/internal/app/features/stats"
	systemusersfeature "github.com/mta-community/mtahub/internal/app/features/systemusers"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Version is reported by /health. Set at build time with
// -ldflags "-X github.com/mta-community/mtahub/internal/app/bootstrap.Version=...".
var Version = "dev"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every route speaks JSON; admin routes
// require a signed-in session and check roles per operation.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.svc

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.WithTracker(svc.Sessions).WithAccounts(svc.Users)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public site API
	regHandler := registrationfeature.NewHandler(svc.Members, svc.Audit, logger)
	aboutHandler := aboutfeature.NewHandler(svc.Pages, svc.Audit, logger)
	settingsHandler := settingsfeature.NewHandler(svc.Settings, svc.Audit, logger)
	contentHandler := contentfeature.NewHandler(svc.Content, svc.Audit, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/register", registrationfeature.Routes(regHandler, svc.RegisterLimiter))
		api.Get("/fees", regHandler.HandleFees)
		api.Get("/about", aboutHandler.ServeAbout)
		api.Get("/settings", settingsHandler.ServePublic)
		api.Mount("/", contentfeature.PublicRoutes(contentHandler))
	})

	// Authentication
	loginHandler := loginfeature.NewHandler(svc.Users, sessionMgr, svc.LoginLimiter, svc.Audit, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.Audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(svc.Users, svc.States, sessionMgr, svc.Audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Sponsor self-service portal
	portalHandler := sponsorportalfeature.NewHandler(svc.Content.Sponsors, svc.Codes, sessionMgr, svc.LoginLimiter, svc.Audit, logger)
	r.Mount("/sponsor-portal", sponsorportalfeature.Routes(portalHandler, sessionMgr))

	// Admin console API
	r.Route("/admin", func(admin chi.Router) {
		admin.Mount("/members", membersfeature.Routes(membersfeature.NewHandler(svc.Members, svc.Audit, logger), sessionMgr))
		admin.Mount("/payments", paymentsfeature.Routes(paymentsfeature.NewHandler(svc.Members, svc.Audit, logger), sessionMgr))
		admin.Mount("/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(svc.Members, svc.Audit, logger), sessionMgr))
		admin.Mount("/content", contentfeature.AdminRoutes(contentHandler, sessionMgr))
		admin.Mount("/about", aboutfeature.AdminRoutes(aboutHandler, sessionMgr))
		admin.Mount("/settings", settingsfeature.AdminRoutes(settingsHandler, sessionMgr))
		admin.Mount("/sponsors", sponsorportalfeature.AdminRoutes(portalHandler, sessionMgr))
		admin.Mount("/outbox", outboxfeature.Routes(outboxfeature.NewHandler(svc.Outbox, svc.Audit, logger), sessionMgr))
		admin.Mount("/users", systemusersfeature.Routes(systemusersfeature.NewHandler(svc.Users, svc.Sessions, svc.Audit, logger), sessionMgr))
		admin.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(svc.Events, logger), sessionMgr))

		// /admin/stats and /admin/expire
		admin.Mount("/", statsfeature.Routes(statsfeature.NewHandler(svc.Members, svc.Audit, logger), sessionMgr))
	})

	return otelhttp.NewHandler(r, "mtahub"), nil
}
