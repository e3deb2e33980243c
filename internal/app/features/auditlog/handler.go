// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/mta-community/mtahub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Events is the read side of the audit store.
type Events interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type Handler struct {
	Events Events
	Log    *zap.Logger
}

// NewHandler constructs the audit log browser over the given event store.
func NewHandler(events Events, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Log: logger}
}
