// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"strconv"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

const defaultLimit = 50

// Notifier sends and lists event notifications.
type Notifier interface {
	SendEventNotification(ctx context.Context, actor authz.Actor, in lifecycle.NotificationInput) (models.EventNotification, error)
	ListNotifications(ctx context.Context, actor authz.Actor, limit int64) ([]models.EventNotification, error)
}

type Handler struct {
	Notifier Notifier
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(n Notifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Notifier: n, Audit: audit, Log: logger}
}

// ServeList handles GET /admin/notifications?limit=N.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	limit := int64(defaultLimit)
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Notifier.ListNotifications(ctx, actor, limit)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.EventNotification{}
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// HandleSend handles POST /admin/notifications. Emails go to the outbox;
// the response reports how many were queued.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	var in lifecycle.NotificationInput
	if err := apierr.Decode(w, r, &in); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Notifier.SendEventNotification(ctx, actor, in)
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Membership(ctx, r, actor, audit.EventNotificationSent, "notification", n.ID, map[string]string{
		"event_id": n.EventID,
		"mode":     string(n.RecipientMode),
		"queued":   strconv.Itoa(n.Queued),
	})
	apierr.JSON(w, http.StatusCreated, n)
}
