package systemusers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/features/systemusers"
	sessionstore "github.com/mta-community/mtahub/internal/app/store/sessions"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	routes   http.Handler
	store    *userstore.Store
	sessions *sessionstore.Memory
	fx       *testutil.Fixtures
	admin    models.User
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fx.CreateAdmin(ctx, "Only Admin", "admin@example.org")

	sessions := sessionstore.NewMemory()
	h := systemusers.NewHandler(store, sessions, nil, zap.NewNop())
	return env{routes: systemusers.Routes(h, testutil.SessionManager(t)), store: store, sessions: sessions, fx: fx, admin: admin}
}

// cookieRouter serves the routes behind a session manager that checks the
// server-side session on every request, the way the app does.
func (e env) cookieRouter(t *testing.T) (http.Handler, *auth.SessionManager) {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "mtahub-test", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)
	sm.WithTracker(e.sessions)
	r := chi.NewRouter()
	r.Use(sm.LoadSessionUser)
	r.Mount("/", systemusers.Routes(systemusers.NewHandler(e.store, e.sessions, nil, zap.NewNop()), sm))
	return r, sm
}

func signIn(t *testing.T, sm *auth.SessionManager, u models.User) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Login(rec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{
		ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role,
	}))
	return rec.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func (e env) as(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role}
}

func TestRoutes_AdminOnly(t *testing.T) {
	e := setup(t)
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("GET", "/", "", testutil.EditorUser())).
		AssertStatus(t, http.StatusForbidden)
	testutil.Serve(e.routes, testutil.JSONRequest("GET", "/", "")).
		AssertStatus(t, http.StatusUnauthorized)
}

func TestCreate(t *testing.T) {
	e := setup(t)
	body := `{"full_name":"Kala Editor","email":"Kala@Example.org","role":"editor","password":"correct-horse-battery"}`

	rec := testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("POST", "/", body, e.as(e.admin)))
	rec.AssertStatus(t, http.StatusCreated)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "kala@example.org", u.Email)
	assert.Equal(t, models.RoleEditor, u.Role)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"duplicate email", body, http.StatusConflict},
		{"bad role", `{"full_name":"X","email":"x@example.org","role":"owner","password":"correct-horse-battery"}`, http.StatusBadRequest},
		{"short password", `{"full_name":"X","email":"x@example.org","role":"viewer","password":"short"}`, http.StatusBadRequest},
		{"no password for password auth", `{"full_name":"X","email":"x@example.org","role":"viewer"}`, http.StatusBadRequest},
		{"google needs no password", `{"full_name":"G","email":"g@example.org","role":"viewer","auth_method":"google"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("POST", "/", tt.body, e.as(e.admin))).
				AssertStatus(t, tt.want)
		})
	}
}

func TestLastAdminProtection(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	second := e.fx.CreateAdmin(ctx, "Second Admin", "second@example.org")

	// an admin cannot demote themself
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+e.admin.ID, `{"role":"editor"}`, e.as(e.admin))).
		AssertStatus(t, http.StatusConflict)
	// nor delete themself
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("DELETE", "/"+e.admin.ID, "", e.as(e.admin))).
		AssertStatus(t, http.StatusConflict)

	// with two admins, one may disable the other
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+second.ID, `{"status":"disabled"}`, e.as(e.admin))).
		AssertStatus(t, http.StatusOK)

	// a disabled admin does not count
	n, err := e.store.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// second (disabled) can be deleted
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("DELETE", "/"+second.ID, "", e.as(e.admin))).
		AssertStatus(t, http.StatusNoContent)
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("DELETE", "/"+second.ID, "", e.as(e.admin))).
		AssertStatus(t, http.StatusNotFound)
}

func TestLastAdmin_CannotBeRemovedByAnotherAdminSession(t *testing.T) {
	e := setup(t)
	// a session for an admin account that no longer exists in the store
	ghost := testutil.AdminUser()
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("DELETE", "/"+e.admin.ID, "", ghost)).
		AssertStatus(t, http.StatusConflict)
	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+e.admin.ID, `{"status":"disabled"}`, ghost)).
		AssertStatus(t, http.StatusConflict)
}

func TestDisabledUserCookie_IsRejected(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	second := e.fx.CreateAdmin(ctx, "Second Admin", "second@example.org")

	routes, sm := e.cookieRouter(t)
	cookies := signIn(t, sm, second)
	testutil.Serve(routes, withCookies(testutil.JSONRequest("GET", "/", ""), cookies)).
		AssertStatus(t, http.StatusOK)

	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+second.ID, `{"status":"disabled"}`, e.as(e.admin))).
		AssertStatus(t, http.StatusOK)

	active, err := e.sessions.GetActiveByUser(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The cookie is still validly signed but its session is gone.
	testutil.Serve(routes, withCookies(testutil.JSONRequest("DELETE", "/"+e.admin.ID, ""), cookies)).
		AssertStatus(t, http.StatusUnauthorized)
}

func TestEdit_RevokesOnlyForAccessChanges(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	editor := e.fx.CreateUser(ctx, "Kala Editor", "kala@example.org", models.RoleEditor, "correct-horse-battery")

	_, sm := e.cookieRouter(t)
	signIn(t, sm, editor)

	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+editor.ID, `{"full_name":"Kala E."}`, e.as(e.admin))).
		AssertStatus(t, http.StatusOK)
	active, err := e.sessions.GetActiveByUser(ctx, editor.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1, "renaming keeps the session")

	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("PATCH", "/"+editor.ID, `{"role":"viewer"}`, e.as(e.admin))).
		AssertStatus(t, http.StatusOK)
	active, err = e.sessions.GetActiveByUser(ctx, editor.ID)
	require.NoError(t, err)
	assert.Empty(t, active, "demotion signs the user out")
}

func TestDelete_RevokesSessions(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	viewer := e.fx.CreateUser(ctx, "Vic Viewer", "vic@example.org", models.RoleViewer, "correct-horse-battery")

	_, sm := e.cookieRouter(t)
	signIn(t, sm, viewer)

	testutil.Serve(e.routes, testutil.NewAuthenticatedRequest("DELETE", "/"+viewer.ID, "", e.as(e.admin))).
		AssertStatus(t, http.StatusNoContent)
	active, err := e.sessions.GetActiveByUser(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCookieForMissingAccount_IsRejected(t *testing.T) {
	e := setup(t)
	routes, sm := e.cookieRouter(t)
	sm.WithAccounts(e.store)

	// Signed and tracked, but no such user exists.
	ghost := models.User{ID: "no-such-user", FullName: "Ghost", Email: "ghost@example.org", Role: models.RoleAdmin}
	testutil.Serve(routes, withCookies(testutil.JSONRequest("GET", "/", ""), signIn(t, sm, ghost))).
		AssertStatus(t, http.StatusUnauthorized)

	testutil.Serve(routes, withCookies(testutil.JSONRequest("GET", "/", ""), signIn(t, sm, e.admin))).
		AssertStatus(t, http.StatusOK)
}
