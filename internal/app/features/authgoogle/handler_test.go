package authgoogle_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/features/authgoogle"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type memStates struct {
	mu     sync.Mutex
	states map[string]string
}

func (m *memStates) Save(_ context.Context, state, returnURL string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = returnURL
	return nil
}

func (m *memStates) Validate(_ context.Context, state string, _ time.Time) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret, ok := m.states[state]
	delete(m.states, state)
	return ret, ok, nil
}

type memUsers struct {
	byEmail map[string]models.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) TouchLogin(context.Context, string, time.Time) error { return nil }

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, email string, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		v := "false"
		if verified {
			v = "true"
		}
		_, _ = w.Write([]byte(`{"id":"g1","email":"` + email + `","verified_email":` + v + `,"name":"Google User"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newHandler(t *testing.T, srv *httptest.Server) (*authgoogle.Handler, *memStates) {
	t.Helper()
	states := &memStates{states: map[string]string{}}
	users := &memUsers{byEmail: map[string]models.User{
		"admin@example.org": {ID: "u1", FullName: "Admin", Email: "admin@example.org",
			Role: models.RoleAdmin, Status: models.UserActive, AuthMethod: models.AuthGoogle},
		"pw@example.org": {ID: "u2", FullName: "Password", Email: "pw@example.org",
			Role: models.RoleEditor, Status: models.UserActive, AuthMethod: models.AuthPassword},
		"off@example.org": {ID: "u3", FullName: "Off", Email: "off@example.org",
			Role: models.RoleEditor, Status: models.UserDisabled, AuthMethod: models.AuthGoogle},
	}}
	h := authgoogle.NewHandler(users, states, testutil.SessionManager(t), nil,
		"client-id", "client-secret", "http://localhost:8080/", zap.NewNop())
	if srv != nil {
		h.Endpoint = oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.UserInfoURL = srv.URL + "/userinfo"
	}
	return h, states
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newHandler(t, nil)
	h.ClientID = ""

	rec := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/", nil))
	rec.AssertStatus(t, http.StatusSeeOther)
	assert.Equal(t, "/login?error=google_disabled", rec.Header().Get("Location"))
}

func TestServeLogin_RedirectsWithStoredState(t *testing.T) {
	h, states := newHandler(t, nil)

	rec := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/?return=/admin/members", nil))
	rec.AssertStatus(t, http.StatusFound)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", loc.Host)
	assert.Equal(t, "http://localhost:8080/auth/google/callback", loc.Query().Get("redirect_uri"))

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "/admin/members", states.states[state])
}

func TestServeLogin_OffsiteReturnIsReplaced(t *testing.T) {
	h, states := newHandler(t, nil)

	testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/?return=//evil.example.com", nil))
	require.Len(t, states.states, 1)
	for _, ret := range states.states {
		assert.Equal(t, "/admin", ret)
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	h, _ := newHandler(t, nil)

	rec := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/callback?state=nope&code=c", nil))
	rec.AssertStatus(t, http.StatusSeeOther)
	assert.Equal(t, "/login?error=oauth_state", rec.Header().Get("Location"))
}

func TestServeCallback_UserDenied(t *testing.T) {
	h, _ := newHandler(t, nil)

	rec := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/callback?error=access_denied", nil))
	assert.Equal(t, "/login?error=oauth_denied", rec.Header().Get("Location"))
}

func TestServeCallback_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		verified bool
		location string
		session  bool
	}{
		{"admin signs in", "admin@example.org", true, "/admin/members", true},
		{"unverified email", "admin@example.org", false, "/login?error=unverified", false},
		{"unknown account", "stranger@example.org", true, "/login?error=not_allowed", false},
		{"disabled account", "off@example.org", true, "/login?error=not_allowed", false},
		{"password account", "pw@example.org", true, "/login?error=use_password", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeGoogle(t, tt.email, tt.verified)
			h, states := newHandler(t, srv)
			states.states["s1"] = "/admin/members"

			rec := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/callback?state=s1&code=abc", nil))
			rec.AssertStatus(t, http.StatusSeeOther)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))

			var hasSession bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == "mtahub-test" && c.MaxAge >= 0 {
					hasSession = true
				}
			}
			assert.Equal(t, tt.session, hasSession)

			// States are single use.
			assert.Empty(t, states.states)
		})
	}
}

func TestServeCallback_StateCannotBeReplayed(t *testing.T) {
	srv := fakeGoogle(t, "admin@example.org", true)
	h, states := newHandler(t, srv)
	states.states["s1"] = "/admin"

	first := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/callback?state=s1&code=abc", nil))
	assert.Equal(t, "/admin", first.Header().Get("Location"))

	second := testutil.Serve(authgoogle.Routes(h), httptest.NewRequest("GET", "/callback?state=s1&code=abc", nil))
	assert.True(t, strings.HasSuffix(second.Header().Get("Location"), "oauth_state"))
}
