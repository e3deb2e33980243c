package members_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mta-community/mtahub/internal/app/features/members"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	mgr    *lifecycle.Manager
	routes http.Handler
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := lifecycle.NewMemoryStore()
	mgr := lifecycle.New(store.Deps())
	h := members.NewHandler(mgr, nil, zap.NewNop())
	return fixture{mgr: mgr, routes: members.Routes(h, testutil.SessionManager(t))}
}

func (f fixture) register(t *testing.T, first, email string) models.Member {
	t.Helper()
	m, err := f.mgr.AddMember(context.Background(), lifecycle.Registration{
		FirstName:      first,
		LastName:       "Kumar",
		Email:          email,
		MembershipType: models.MembershipIndividual,
	})
	require.NoError(t, err)
	return m
}

func (f fixture) do(method, target, body string, user testutil.TestUser) *testutil.ResponseRecorder {
	return testutil.Serve(f.routes, testutil.NewAuthenticatedRequest(method, target, body, user))
}

func TestList_RequiresSignIn(t *testing.T) {
	f := setup(t)
	rec := testutil.Serve(f.routes, testutil.JSONRequest("GET", "/", ""))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestList_Search(t *testing.T) {
	f := setup(t)
	f.register(t, "Anita", "anita@example.com")
	f.register(t, "Ravi", "ravi@example.com")

	rec := f.do("GET", "/?q=ravi", "", testutil.ViewerUser())
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Members []models.Member `json:"members"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "ravi@example.com", resp.Members[0].Email)
}

func TestView_NotFound(t *testing.T) {
	f := setup(t)
	f.do("GET", "/missing", "", testutil.ViewerUser()).AssertStatus(t, http.StatusNotFound)
}

func TestEdit(t *testing.T) {
	f := setup(t)
	m := f.register(t, "Anita", "anita@example.com")

	t.Run("viewer forbidden", func(t *testing.T) {
		f.do("PATCH", "/"+m.ID, `{"phone":"555-0100"}`, testutil.ViewerUser()).AssertStatus(t, http.StatusForbidden)
	})
	t.Run("editor updates", func(t *testing.T) {
		rec := f.do("PATCH", "/"+m.ID, `{"phone":"555-0100"}`, testutil.EditorUser())
		rec.AssertStatus(t, http.StatusOK)
		got, err := f.mgr.GetMember(context.Background(), testActor(), m.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0100", got.Phone)
		assert.Equal(t, m.RegistrationReference, got.RegistrationReference)
	})
	t.Run("unknown field rejected", func(t *testing.T) {
		f.do("PATCH", "/"+m.ID, `{"status":"active"}`, testutil.EditorUser()).AssertStatus(t, http.StatusBadRequest)
	})
}

func TestStatus(t *testing.T) {
	f := setup(t)
	m := f.register(t, "Anita", "anita@example.com")

	tests := []struct {
		name string
		user testutil.TestUser
		body string
		want int
	}{
		{"invalid status", testutil.EditorUser(), `{"status":"gone"}`, http.StatusBadRequest},
		{"active without payment", testutil.EditorUser(), `{"status":"active"}`, http.StatusConflict},
		{"editor cannot cancel", testutil.EditorUser(), `{"status":"cancelled"}`, http.StatusForbidden},
		{"admin cancels", testutil.AdminUser(), `{"status":"cancelled"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.do("POST", "/"+m.ID+"/status", tt.body, tt.user).AssertStatus(t, tt.want)
		})
	}
}

func TestActivate(t *testing.T) {
	f := setup(t)
	m := f.register(t, "Anita", "anita@example.com")

	rec := f.do("POST", "/"+m.ID+"/activate", `{"amount":2500,"payment_method":"cash"}`, testutil.EditorUser())
	rec.AssertStatus(t, http.StatusOK)

	var act lifecycle.Activation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &act))
	assert.Equal(t, models.StatusActive, act.Member.Status)
	assert.Regexp(t, `^MTA-\d{4}-\d{4}$`, act.Member.MembershipNumber)
	assert.Equal(t, m.ID, act.Payment.MemberID)
	assert.Equal(t, models.PaymentVerified, act.Payment.Status)

	rec = f.do("GET", "/"+m.ID+"/payments", "", testutil.ViewerUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, act.Payment.ID)
}

func TestAddPayment(t *testing.T) {
	f := setup(t)
	m := f.register(t, "Anita", "anita@example.com")

	f.do("POST", "/"+m.ID+"/payments", `{"amount":0,"payment_method":"cash"}`, testutil.EditorUser()).
		AssertStatus(t, http.StatusBadRequest)

	rec := f.do("POST", "/"+m.ID+"/payments", `{"amount":2500,"payment_method":"etransfer"}`, testutil.EditorUser())
	rec.AssertStatus(t, http.StatusCreated)

	var p models.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, m.ID, p.MemberID)
}

func TestDelete_AdminOnly(t *testing.T) {
	f := setup(t)
	m := f.register(t, "Anita", "anita@example.com")

	f.do("DELETE", "/"+m.ID, "", testutil.EditorUser()).AssertStatus(t, http.StatusForbidden)
	f.do("DELETE", "/"+m.ID, "", testutil.AdminUser()).AssertStatus(t, http.StatusNoContent)
	f.do("GET", "/"+m.ID, "", testutil.AdminUser()).AssertStatus(t, http.StatusNotFound)
}

func testActor() authz.Actor { return authz.Actor{ID: "t", Name: "test", Role: models.RoleViewer} }
