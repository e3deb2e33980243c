// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mta-community/mtahub/internal/app/store/audit"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/app/system/normalize"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateLifetime      = 10 * time.Minute
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultReturn      = "/admin"
)

// States persists one-time OAuth state values between redirect and callback.
type States interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string, now time.Time) (returnURL string, valid bool, err error)
}

// Users is what Google sign-in needs from the staff user store.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// Handler runs the Google OAuth sign-in flow for admin console users.
type Handler struct {
	Users      Users
	States     States
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	BaseURL      string

	// Endpoint and UserInfoURL default to Google's. Tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a Google OAuth handler. baseURL is the public origin
// used to build the callback URL.
func NewHandler(users Users, states States, sessionMgr *auth.SessionManager, audit *auditlog.Logger,
	clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		States:       states,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

func (h *Handler) configured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.BaseURL + "/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     h.Endpoint,
	}
}

// googleUserInfo is the subset of the userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// ServeLogin handles GET /auth/google. It stores a fresh state value and
// redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		redirectToLogin(w, r, "google_disabled")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("generate oauth state", zap.Error(err))
		redirectToLogin(w, r, "oauth")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := safeReturn(r.URL.Query().Get("return"))
	if err := h.States.Save(ctx, state, returnURL, time.Now().Add(stateLifetime)); err != nil {
		h.Log.Error("save oauth state", zap.Error(err))
		redirectToLogin(w, r, "oauth")
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// ServeCallback handles GET /auth/google/callback.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		redirectToLogin(w, r, "google_disabled")
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.Log.Info("google oauth denied", zap.String("error", e))
		redirectToLogin(w, r, "oauth_denied")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctx, q.Get("state"), time.Now())
	if err != nil {
		h.Log.Error("validate oauth state", zap.Error(err))
		redirectToLogin(w, r, "oauth")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired oauth state")
		redirectToLogin(w, r, "oauth_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectToLogin(w, r, "oauth")
		return
	}

	cfg := h.oauth2Config()
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("oauth code exchange failed", zap.Error(err))
		redirectToLogin(w, r, "oauth")
		return
	}

	info, err := h.fetchUserInfo(ctx, cfg, tok)
	if err != nil {
		h.Log.Warn("fetch google userinfo failed", zap.Error(err))
		redirectToLogin(w, r, "oauth")
		return
	}
	email := normalize.Email(info.Email)
	if !info.VerifiedEmail || email == "" {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "", email, "google email not verified")
		redirectToLogin(w, r, "unverified")
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "", email, "no admin user for google account")
		redirectToLogin(w, r, "not_allowed")
		return
	case err != nil:
		h.Log.Error("google login: user lookup", zap.Error(err))
		redirectToLogin(w, r, "db")
		return
	}
	if normalize.Status(u.Status) == models.UserDisabled {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, email, "account disabled")
		redirectToLogin(w, r, "not_allowed")
		return
	}
	if normalize.AuthMethod(u.AuthMethod) != models.AuthGoogle {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, email, "account uses password sign-in")
		redirectToLogin(w, r, "use_password")
		return
	}

	if err := h.SessionMgr.Login(w, r, auth.SessionUser{
		ID:    u.ID,
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("google login: save session", zap.Error(err), zap.String("user_id", u.ID))
		redirectToLogin(w, r, "session")
		return
	}
	if err := h.Users.TouchLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("google login: record last login", zap.String("user_id", u.ID), zap.Error(err))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Role, models.AuthGoogle, u.Email)
	h.Log.Info("user logged in via Google OAuth", zap.String("user_id", u.ID))

	http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
}

func (h *Handler) fetchUserInfo(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*googleUserInfo, error) {
	client := cfg.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("userinfo: decode: %w", err)
	}
	return &info, nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

// safeReturn keeps redirects on this site: only absolute paths are allowed,
// and protocol-relative "//host" values fall back to the default.
func safeReturn(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return defaultReturn
	}
	return p
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
