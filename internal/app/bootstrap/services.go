// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/mta-community/mtahub/internal/app/content"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	auditstore "github.com/mta-community/mtahub/internal/app/store/audit"
	contentstore "github.com/mta-community/mtahub/internal/app/store/content"
	counterstore "github.com/mta-community/mtahub/internal/app/store/counters"
	memberstore "github.com/mta-community/mtahub/internal/app/store/members"
	notificationstore "github.com/mta-community/mtahub/internal/app/store/notifications"
	"github.com/mta-community/mtahub/internal/app/store/oauthstate"
	outboxstore "github.com/mta-community/mtahub/internal/app/store/outbox"
	pagestore "github.com/mta-community/mtahub/internal/app/store/pages"
	paymentstore "github.com/mta-community/mtahub/internal/app/store/payments"
	sessionstore "github.com/mta-community/mtahub/internal/app/store/sessions"
	settingsstore "github.com/mta-community/mtahub/internal/app/store/settings"
	"github.com/mta-community/mtahub/internal/app/store/sponsoraccess"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/mailer"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
	"github.com/mta-community/mtahub/internal/app/system/tasks"
	"github.com/mta-community/mtahub/internal/app/system/tracing"
	"github.com/mta-community/mtahub/internal/app/system/txn"
	"github.com/mta-community/mtahub/internal/app/system/workers"
	"go.uber.org/zap"
)

// services is the object graph shared by Startup, BuildHandler and Shutdown.
type services struct {
	Members  *lifecycle.Manager
	Content  *content.Registry
	Settings *settingsstore.Store
	Pages    *pagestore.Store
	Outbox   *outboxstore.Store
	Users    *userstore.Store
	Sessions *sessionstore.Store
	States   *oauthstate.Store
	Codes    *sponsoraccess.Store
	Events   *auditstore.Store
	Audit    *auditlog.Logger

	RegisterLimiter *ratelimit.Limiter
	LoginLimiter    *ratelimit.LoginLimiter

	delivery      *workers.OutboxDelivery
	runner        *tasks.Runner
	traceShutdown tracing.ShutdownFunc
}

// build wires stores, the lifecycle manager and the background workers.
// Nothing is started here.
func (s *services) build(appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	s.Events = auditstore.New(db)
	s.Audit = auditlog.New(s.Events, logger, auditlog.Config{
		Auth:  appCfg.AuditLogMode,
		Admin: appCfg.AuditLogMode,
	})

	s.Settings = settingsstore.New(db)
	s.Pages = pagestore.New(db)
	s.Outbox = outboxstore.New(db)
	s.Users = userstore.New(db)
	s.Sessions = sessionstore.New(db)
	s.States = oauthstate.New(db)
	s.Codes = sponsoraccess.New(db)
	s.Content = content.NewRegistry(contentstore.Repos(db))

	s.Members = lifecycle.New(lifecycle.Deps{
		Members:       memberstore.New(db),
		Payments:      paymentstore.New(db),
		Sequencer:     counterstore.New(db),
		Outbox:        s.Outbox,
		Notifications: notificationstore.New(db),
		Settings:      s.Settings,
		Tx:            txn.New(deps.MongoClient, logger),
		Log:           logger,
		PaymentEmail:  appCfg.PaymentEmail,
	})

	sender, err := newSender(appCfg, logger)
	if err != nil {
		return err
	}
	s.delivery = workers.NewOutboxDelivery(s.Outbox, sender, workers.OutboxConfig{
		Interval:    appCfg.OutboxInterval,
		MaxAttempts: appCfg.OutboxMaxAttempts,
	}, logger)

	s.runner = tasks.NewRunner(logger,
		tasks.ExpirySweepJob(s.Members, logger, appCfg.ExpirySweepInterval),
		tasks.OAuthStateCleanupJob(s.States, logger),
		tasks.SessionCleanupJob(s.Sessions, logger, appCfg.SessionMaxAge),
	)

	s.RegisterLimiter = ratelimit.New(appCfg.RegisterBurst, appCfg.RegisterRate)
	s.LoginLimiter = ratelimit.NewLoginLimiter()
	return nil
}

// newSender returns the SMTP mailer, or a LogSender when no host is set.
func newSender(appCfg AppConfig, logger *zap.Logger) (mailer.Sender, error) {
	if appCfg.SMTPHost == "" {
		logger.Warn("smtp_host not set; outbound email will be logged, not sent")
		return mailer.LogSender{Log: logger}, nil
	}
	return mailer.New(mailer.Config{
		Host:     appCfg.SMTPHost,
		Port:     appCfg.SMTPPort,
		Username: appCfg.SMTPUser,
		Password: appCfg.SMTPPass,
		TLS:      appCfg.SMTPTLS,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
}
