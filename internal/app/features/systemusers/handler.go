// internal/app/features/systemusers/handler.go
package systemusers

import (
	"context"

	sessionstore "github.com/mta-community/mtahub/internal/app/store/sessions"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Users is the staff user store. *userstore.Store satisfies it.
type Users interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u models.User, password string) (models.User, error)
	Update(ctx context.Context, id string, upd userstore.Update) (*models.User, error)
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int64, error)
}

// Sessions ends a user's open sign-ins. *sessionstore.Store satisfies it.
type Sessions interface {
	CloseForUser(ctx context.Context, userID, reason string) (int64, error)
}

type Handler struct {
	Users    Users
	Sessions Sessions
	Log      *zap.Logger
	AuditLog *auditlog.Logger
}

// NewHandler constructs a System Users feature handler bound to the given
// user store and logger. sessions may be nil.
func NewHandler(users Users, sessions Sessions, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Log:      logger,
		AuditLog: audit,
	}
}

// revoke signs the user out everywhere. Failures are logged; the account
// re-read in the session middleware still applies the change.
func (h *Handler) revoke(ctx context.Context, userID string) {
	if h.Sessions == nil {
		return
	}
	n, err := h.Sessions.CloseForUser(ctx, userID, sessionstore.ReasonRevoked)
	if err != nil {
		h.Log.Warn("revoke sessions failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if n > 0 {
		h.Log.Info("revoked sessions", zap.String("user_id", userID), zap.Int64("count", n))
	}
}
