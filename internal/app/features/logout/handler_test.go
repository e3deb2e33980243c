package logout_test

import (
	"net/http"
	"testing"

	"github.com/mta-community/mtahub/internal/app/features/logout"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/testutil"
	"go.uber.org/zap"
)

func TestLogout_ClearsCookie(t *testing.T) {
	sm := testutil.SessionManager(t)
	h := logout.NewHandler(sm, nil, zap.NewNop())

	rec := testutil.NewRecorder()
	if err := sm.Login(rec, testutil.JSONRequest("POST", "/login", ""), auth.SessionUser{ID: "u1", Name: "Admin", Role: "admin"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := testutil.WithUser(testutil.JSONRequest("POST", "/", ""), testutil.AdminUser())
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	out := testutil.Serve(logout.Routes(h), req)
	out.AssertStatus(t, http.StatusNoContent)

	var cleared bool
	for _, c := range out.Result().Cookies() {
		if c.Name == sm.Name() && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected an expiring session cookie")
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	h := logout.NewHandler(testutil.SessionManager(t), nil, zap.NewNop())
	testutil.Serve(logout.Routes(h), testutil.JSONRequest("POST", "/", "")).AssertStatus(t, http.StatusNoContent)
}
