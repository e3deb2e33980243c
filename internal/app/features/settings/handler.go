// internal/app/features/settings/handler.go
package settings

import (
	"context"

	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Store reads and replaces the site settings singleton.
// *settingsstore.Store and *lifecycle.MemorySettings satisfy it.
type Store interface {
	Get(ctx context.Context) (models.SiteSettings, error)
	Save(ctx context.Context, s models.SiteSettings) error
}

// Handler owns the public and admin settings endpoints.
type Handler struct {
	Settings Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the given settings store and logger.
func NewHandler(store Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: store,
		Audit:    audit,
		Log:      logger,
	}
}
