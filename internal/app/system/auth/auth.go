// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
	sponsorIDKey = "sponsor_id"
	sessionIDKey = "session_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
// Staff sessions carry a role of admin/editor/viewer. Sponsor portal
// sessions carry role "sponsor" and the sponsor's id.
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	SponsorID string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context. Tests use it to skip the
// cookie round trip.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Tracker keeps a server-side record per sign-in so a cookie can be
// revoked before it expires.
type Tracker interface {
	Start(ctx context.Context, userID, role, ip, userAgent string) (string, error)
	Touch(ctx context.Context, id string) (bool, error)
	Close(ctx context.Context, id, reason string) error
}

// Accounts re-reads the staff account behind a session.
type Accounts interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	log      *zap.Logger
	tracker  Tracker
	accounts Accounts
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure + SameSite=None so the
// separately hosted front end can send them. Over http://localhost use
// secure=false so the browser accepts them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "mtahub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Name returns the session cookie name.
func (m *SessionManager) Name() string { return m.name }

// WithTracker makes every cookie depend on an open server-side session.
// Cookies without one, or whose session was closed, are treated as
// signed out.
func (m *SessionManager) WithTracker(t Tracker) *SessionManager {
	m.tracker = t
	return m
}

// WithAccounts re-reads staff accounts on every request. Deleted or
// disabled accounts are signed out and role changes apply immediately.
func (m *SessionManager) WithAccounts(a Accounts) *SessionManager {
	m.accounts = a
	return m
}

// Login writes u into the session cookie.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess := m.session(r)
	if m.tracker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if old := getString(sess, sessionIDKey); old != "" {
			_ = m.tracker.Close(ctx, old, "new_login")
		}
		id, err := m.tracker.Start(ctx, u.ID, strings.ToLower(u.Role), ratelimit.ClientIP(r), r.UserAgent())
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		sess.Values[sessionIDKey] = id
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = strings.ToLower(u.Role)
	sess.Values[sponsorIDKey] = u.SponsorID
	return sess.Save(r, w)
}

// session returns the request's session, or a fresh one when the cookie
// cannot be read. sessions.Store.Get always returns a usable session.
func (m *SessionManager) session(r *http.Request) *sessions.Session {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		m.logGetError(err)
	}
	return sess
}

func (m *SessionManager) logGetError(err error) {
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		m.log.Debug("session cookie invalid, using fresh session", zap.Error(err))
		return
	}
	m.log.Warn("session store error, using fresh session", zap.Error(err))
}

// Logout closes the server-side session and clears the cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r)
	if id := getString(sess, sessionIDKey); id != "" && m.tracker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if err := m.tracker.Close(ctx, id, "logout"); err != nil {
			m.log.Warn("logout: close session", zap.Error(err))
		}
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Tampered or stale cookie; treat as signed out.
			m.logGetError(err)
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:        getString(sess, userIDKey),
				Name:      getString(sess, userNameKey),
				Email:     getString(sess, userEmailKey),
				Role:      getString(sess, userRoleKey),
				SponsorID: getString(sess, sponsorIDKey),
			}
			if m.verify(r.Context(), getString(sess, sessionIDKey), u) {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// verify checks the cookie against server-side state and refreshes u from
// the account. Lookup errors fail closed.
func (m *SessionManager) verify(ctx context.Context, sessionID string, u *SessionUser) bool {
	if m.tracker == nil && m.accounts == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	if m.tracker != nil {
		if sessionID == "" {
			return false
		}
		open, err := m.tracker.Touch(ctx, sessionID)
		if err != nil {
			m.log.Warn("session lookup failed", zap.String("user_id", u.ID), zap.Error(err))
			return false
		}
		if !open {
			return false
		}
	}
	if m.accounts != nil && u.Role != models.RoleSponsor {
		acct, err := m.accounts.GetByID(ctx, u.ID)
		if err != nil {
			m.log.Debug("session account lookup failed", zap.String("user_id", u.ID), zap.Error(err))
			return false
		}
		if acct.Status == models.UserDisabled {
			return false
		}
		u.Role = strings.ToLower(acct.Role)
		u.Name = acct.FullName
		u.Email = acct.Email
	}
	return true
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// Unauthenticated callers get a 401 JSON body.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		writeDenied(w, http.StatusUnauthorized, "unauthorized")
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
//   - not signed in → 401
//   - signed in with another role → 403
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeDenied(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeDenied(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func writeDenied(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
