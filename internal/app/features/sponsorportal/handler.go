// internal/app/features/sponsorportal/handler.go
package sponsorportal

import (
	"context"

	"github.com/mta-community/mtahub/internal/app/content"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Sponsors is the sponsor content service as the portal uses it: reads and
// writes that bypass the staff role gate, because the portal does its own
// tier check first.
type Sponsors interface {
	Lookup(ctx context.Context, id string) (models.Sponsor, error)
	Mutate(ctx context.Context, id, updatedBy string, fn func(*models.Sponsor) error) (models.Sponsor, error)
}

var _ Sponsors = (*content.Service[models.Sponsor, *models.Sponsor])(nil)

// Codes stores the bcrypt-hashed portal access codes.
// *sponsoraccess.Store and *sponsoraccess.Memory satisfy it.
type Codes interface {
	SetCode(ctx context.Context, sponsorID, code, by string) error
	Check(ctx context.Context, sponsorID, code string) (bool, error)
}

type Handler struct {
	Sponsors   Sponsors
	Codes      Codes
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sponsors Sponsors, codes Codes, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Sponsors:   sponsors,
		Codes:      codes,
		SessionMgr: sm,
		Limiter:    limiter,
		Audit:      audit,
		Log:        logger,
	}
}
