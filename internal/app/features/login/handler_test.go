package login_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/features/login"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	touched []string
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) TouchLogin(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func newUsers(t *testing.T) *fakeUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeUsers{byEmail: map[string]models.User{
		"admin@example.org": {
			ID: "u1", FullName: "Admin", Email: "admin@example.org",
			Role: models.RoleAdmin, Status: models.UserActive, PasswordHash: string(hash),
		},
		"gone@example.org": {
			ID: "u2", FullName: "Gone", Email: "gone@example.org",
			Role: models.RoleEditor, Status: models.UserDisabled, PasswordHash: string(hash),
		},
	}}
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	users := newUsers(t)
	sm := testutil.SessionManager(t)
	h := login.NewHandler(users, sm, nil, nil, zap.NewNop())

	rec := testutil.Serve(login.Routes(h), testutil.JSONRequest("POST", "/", `{"email":"Admin@Example.org","password":"correct-horse"}`))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"admin"`)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.Name() {
			found = true
		}
	}
	assert.True(t, found, "session cookie set")
	assert.Equal(t, []string{"u1"}, users.touched)
}

func TestLogin_Failures(t *testing.T) {
	h := login.NewHandler(newUsers(t), testutil.SessionManager(t), nil, nil, zap.NewNop())
	routes := login.Routes(h)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown user", `{"email":"who@example.org","password":"correct-horse"}`, http.StatusUnauthorized},
		{"wrong password", `{"email":"admin@example.org","password":"nope"}`, http.StatusUnauthorized},
		{"disabled", `{"email":"gone@example.org","password":"correct-horse"}`, http.StatusUnauthorized},
		{"bad body", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Serve(routes, testutil.JSONRequest("POST", "/", tt.body))
			rec.AssertStatus(t, tt.want)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)
	h := login.NewHandler(newUsers(t), testutil.SessionManager(t), limiter, nil, zap.NewNop())
	routes := login.Routes(h)

	var last int
	for i := 0; i < 6; i++ {
		last = testutil.Serve(routes, testutil.JSONRequest("POST", "/", `{"email":"admin@example.org","password":"nope"}`)).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
