// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Users is what sign-in needs from the staff user store.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

type Handler struct {
	Users      Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users Users, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// errBadCredentials is the single message for every failed sign-in so the
// response does not reveal which accounts exist.
var errBadCredentials = apierr.Body{Error: "invalid email or password"}

// HandleLoginPost handles POST /login with a JSON email and password.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apierr.Decode(w, r, &req); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, "", email, "rate limited")
			apierr.JSON(w, http.StatusTooManyRequests, apierr.Body{Error: reason})
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		userstore.CheckPassword(nil, req.Password)
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "", email, "no such user")
		apierr.JSON(w, http.StatusUnauthorized, errBadCredentials)
		return
	}
	if err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}

	if normalize.Status(u.Status) == models.UserDisabled {
		userstore.CheckPassword(nil, req.Password)
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, email, "account disabled")
		apierr.JSON(w, http.StatusUnauthorized, errBadCredentials)
		return
	}
	if !userstore.CheckPassword(u, req.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, email, "wrong password")
		apierr.JSON(w, http.StatusUnauthorized, errBadCredentials)
		return
	}

	if err := h.SessionMgr.Login(w, r, auth.SessionUser{
		ID:    u.ID,
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetAccount(email)
	}
	if err := h.Users.TouchLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("login: record last login", zap.String("user_id", u.ID), zap.Error(err))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Role, models.AuthPassword, u.Email)

	apierr.JSON(w, http.StatusOK, loginResponse{ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role})
}
