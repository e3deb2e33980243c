// internal/app/features/outbox/handler.go
package outbox

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Queue is the admin view of the outbox. *outboxstore.Store and
// *lifecycle.MemoryOutbox satisfy it.
type Queue interface {
	List(ctx context.Context, status models.DeliveryStatus, limit int64) ([]models.OutboxMessage, error)
	Retry(ctx context.Context, id string, now time.Time) error
}

type Handler struct {
	Queue Queue
	Audit *auditlog.Logger
	Log   *zap.Logger
	now   func() time.Time
}

func NewHandler(q Queue, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Queue: q, Audit: audit, Log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ServeList handles GET /admin/outbox?status=failed&limit=N.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.View); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	q := r.URL.Query()
	status := models.DeliveryStatus(normalize.Status(q.Get("status")))
	switch status {
	case "", models.DeliveryPending, models.DeliverySending, models.DeliverySent, models.DeliveryFailed:
	default:
		apierr.WriteJSON(w, r, h.Log, &apierr.BadRequest{Msg: "status must be one of pending, sending, sent, failed"})
		return
	}
	limit := int64(defaultLimit)
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v > 0 && v <= maxLimit {
		limit = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Queue.List(ctx, status, limit)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if msgs == nil {
		msgs = []models.OutboxMessage{}
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}

// HandleRetry handles POST /admin/outbox/{id}/retry: a failed message goes
// back to pending with a fresh attempt budget.
func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if err := authz.Require(actor, authz.Edit); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Queue.Retry(ctx, id, h.now()); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Admin(ctx, r, actor, audit.EventOutboxRetried, "outbox", id, nil)
	apierr.JSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.DeliveryPending)})
}
