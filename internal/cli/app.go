// internal/cli/app.go
package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	counterstore "github.com/mta-community/mtahub/internal/app/store/counters"
	memberstore "github.com/mta-community/mtahub/internal/app/store/members"
	notificationstore "github.com/mta-community/mtahub/internal/app/store/notifications"
	outboxstore "github.com/mta-community/mtahub/internal/app/store/outbox"
	paymentstore "github.com/mta-community/mtahub/internal/app/store/payments"
	settingsstore "github.com/mta-community/mtahub/internal/app/store/settings"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/mailer"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/app/system/txn"
	"github.com/mta-community/mtahub/internal/app/system/workers"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Outbox is the queue surface mtactl reads and drains.
type Outbox interface {
	workers.Queue
	List(ctx context.Context, status models.DeliveryStatus, limit int64) ([]models.OutboxMessage, error)
}

// Users creates staff accounts.
type Users interface {
	Create(ctx context.Context, u models.User, password string) (models.User, error)
}

// App holds what the commands operate on.
type App struct {
	Cfg      *Config
	Log      *zap.Logger
	Members  *lifecycle.Manager
	Outbox   Outbox
	Users    Users
	Delivery *workers.OutboxDelivery

	close func(ctx context.Context) error
}

// Close releases the database connection, if any.
func (a *App) Close(ctx context.Context) error {
	if a.close == nil {
		return nil
	}
	return a.close(ctx)
}

// NewMemoryApp wires the commands to in-process stores. Nothing persists
// past the process; it is meant for trying commands out and for tests.
func NewMemoryApp(cfg *Config, logger *zap.Logger) (*App, error) {
	store := lifecycle.NewMemoryStore()
	deps := store.Deps()
	deps.Log = logger
	deps.PaymentEmail = cfg.PaymentEmail

	a := &App{
		Cfg:     cfg,
		Log:     logger,
		Members: lifecycle.New(deps),
		Outbox:  store.Outbox(),
		Users:   newMemUsers(),
	}
	if err := a.wireDelivery(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewMongoApp connects to MongoDB and wires the same stores the server uses.
func NewMongoApp(ctx context.Context, cfg *Config, logger *zap.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.Mongo.Database)
	logger.Debug("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	outbox := outboxstore.New(db)
	a := &App{
		Cfg: cfg,
		Log: logger,
		Members: lifecycle.New(lifecycle.Deps{
			Members:       memberstore.New(db),
			Payments:      paymentstore.New(db),
			Sequencer:     counterstore.New(db),
			Outbox:        outbox,
			Notifications: notificationstore.New(db),
			Settings:      settingsstore.New(db),
			Tx:            txn.New(client, logger),
			Log:           logger,
			PaymentEmail:  cfg.PaymentEmail,
		}),
		Outbox: outbox,
		Users:  userstore.New(db),
		close:  client.Disconnect,
	}
	if err := a.wireDelivery(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) wireDelivery() error {
	var sender mailer.Sender = mailer.LogSender{Log: a.Log}
	if a.Cfg.SMTP.Host != "" {
		m, err := mailer.New(mailer.Config{
			Host:     a.Cfg.SMTP.Host,
			Port:     a.Cfg.SMTP.Port,
			Username: a.Cfg.SMTP.Username,
			Password: a.Cfg.SMTP.Password,
			TLS:      a.Cfg.SMTP.TLS,
			From:     a.Cfg.SMTP.From,
			FromName: a.Cfg.SMTP.FromName,
		}, a.Log)
		if err != nil {
			return err
		}
		sender = m
	}
	a.Delivery = workers.NewOutboxDelivery(a.Outbox, sender, workers.OutboxConfig{
		MaxAttempts: a.Cfg.Outbox.MaxAttempts,
	}, a.Log)
	return nil
}

// memUsers is the --memory user store.
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]models.User)}
}

func (m *memUsers) Create(_ context.Context, u models.User, password string) (models.User, error) {
	u, err := userstore.Prepare(u, password)
	if err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	m.byEmail[u.Email] = u
	return u, nil
}

// commandTimeout bounds any single command.
const commandTimeout = 2 * time.Minute
