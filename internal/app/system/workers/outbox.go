// internal/app/system/workers/outbox.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/mta-community/mtahub/internal/app/system/mailer"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Queue is the outbox surface the delivery worker drives. Both the Mongo
// store and the in-memory outbox implement it.
type Queue interface {
	ClaimDue(ctx context.Context, now time.Time) (models.OutboxMessage, bool, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkRetry(ctx context.Context, id, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id, lastErr string) error
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxConfig tunes delivery.
type OutboxConfig struct {
	Interval    time.Duration // how often to poll for due messages
	MaxAttempts int           // attempts before a message is marked failed
	BaseBackoff time.Duration // first retry delay; doubles per attempt
	MaxBackoff  time.Duration
	BatchSize   int           // messages per pass
	StaleAfter  time.Duration // "sending" older than this is put back to pending
	SendTimeout time.Duration
}

func (c *OutboxConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 6 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
}

// PassResult counts what one delivery pass did.
type PassResult struct {
	Sent    int
	Retried int
	Failed  int
}

// OutboxDelivery is a background worker that sends queued email.
type OutboxDelivery struct {
	queue  Queue
	sender mailer.Sender
	cfg    OutboxConfig
	log    *zap.Logger
	now    func() time.Time
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewOutboxDelivery creates a delivery worker. Zero config fields get defaults.
func NewOutboxDelivery(queue Queue, sender mailer.Sender, cfg OutboxConfig, logger *zap.Logger) *OutboxDelivery {
	cfg.defaults()
	return &OutboxDelivery{
		queue:  queue,
		sender: sender,
		cfg:    cfg,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
		stopCh: make(chan struct{}),
	}
}

// WithClock replaces the worker's clock. Tests only.
func (w *OutboxDelivery) WithClock(now func() time.Time) *OutboxDelivery {
	w.now = now
	return w
}

// Start begins the background delivery loop.
func (w *OutboxDelivery) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox delivery worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("max_attempts", w.cfg.MaxAttempts))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OutboxDelivery) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox delivery worker stopped")
}

func (w *OutboxDelivery) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if _, err := w.DeliverPass(ctx); err != nil {
				w.log.Error("outbox pass failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// DeliverPass requeues stale claims and then sends up to BatchSize due
// messages one at a time. mtactl calls it directly.
func (w *OutboxDelivery) DeliverPass(ctx context.Context) (PassResult, error) {
	var res PassResult

	n, err := w.queue.RequeueStale(ctx, w.now().Add(-w.cfg.StaleAfter))
	if err != nil {
		return res, err
	}
	if n > 0 {
		w.log.Warn("requeued stale outbox claims", zap.Int64("count", n))
	}

	for i := 0; i < w.cfg.BatchSize; i++ {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		msg, ok, err := w.queue.ClaimDue(ctx, w.now())
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}
		switch w.deliver(ctx, msg) {
		case models.DeliverySent:
			res.Sent++
		case models.DeliveryPending:
			res.Retried++
		case models.DeliveryFailed:
			res.Failed++
		}
	}
	if res != (PassResult{}) {
		w.log.Info("outbox pass",
			zap.Int("sent", res.Sent),
			zap.Int("retried", res.Retried),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// deliver sends a claimed message and records the outcome. msg.Attempts
// already counts this attempt.
func (w *OutboxDelivery) deliver(ctx context.Context, msg models.OutboxMessage) models.DeliveryStatus {
	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	err := w.sender.Send(sendCtx, mailer.Email{
		To:       msg.To,
		ToName:   msg.ToName,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	cancel()

	log := w.log.With(zap.String("outbox_id", msg.ID), zap.String("kind", msg.Kind), zap.Int("attempt", msg.Attempts))
	if err == nil {
		if mErr := w.queue.MarkSent(ctx, msg.ID, w.now()); mErr != nil {
			log.Error("mark sent", zap.Error(mErr))
		}
		return models.DeliverySent
	}

	if msg.Attempts >= w.cfg.MaxAttempts {
		log.Error("email delivery failed permanently", zap.Error(err))
		if mErr := w.queue.MarkFailed(ctx, msg.ID, err.Error()); mErr != nil {
			log.Error("mark failed", zap.Error(mErr))
		}
		return models.DeliveryFailed
	}

	next := w.now().Add(Backoff(msg.Attempts, w.cfg.BaseBackoff, w.cfg.MaxBackoff))
	log.Warn("email delivery failed, will retry", zap.Error(err), zap.Time("next_attempt_at", next))
	if mErr := w.queue.MarkRetry(ctx, msg.ID, err.Error(), next); mErr != nil {
		log.Error("mark retry", zap.Error(mErr))
	}
	return models.DeliveryPending
}

// Backoff is base * 2^(attempt-1), capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
