package auditlog_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/features/auditlog"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEvents struct {
	events []audit.Event
	total  int64
	last   audit.QueryFilter
}

func (f *fakeEvents) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	f.last = filter
	return f.events, nil
}

func (f *fakeEvents) CountByFilter(_ context.Context, filter audit.QueryFilter) (int64, error) {
	return f.total, nil
}

func newRouter(t *testing.T, ev *fakeEvents) http.Handler {
	t.Helper()
	return auditlog.Routes(auditlog.NewHandler(ev, zap.NewNop()), testutil.SessionManager(t))
}

func TestServeList_AdminOnly(t *testing.T) {
	ev := &fakeEvents{}
	h := newRouter(t, ev)

	testutil.Serve(h, testutil.JSONRequest("GET", "/", "")).AssertStatus(t, http.StatusUnauthorized)
	testutil.Serve(h, testutil.NewAuthenticatedRequest("GET", "/", "", testutil.EditorUser())).AssertStatus(t, http.StatusForbidden)
	testutil.Serve(h, testutil.NewAuthenticatedRequest("GET", "/", "", testutil.AdminUser())).AssertStatus(t, http.StatusOK)
}

func TestServeList_PassesFilters(t *testing.T) {
	ev := &fakeEvents{
		events: []audit.Event{{Category: audit.CategoryMembership, EventType: audit.EventPaymentVerified, TargetType: "payment", TargetID: "p1"}},
		total:  120,
	}
	h := newRouter(t, ev)

	rec := testutil.Serve(h, testutil.NewAuthenticatedRequest("GET",
		"/?category=membership&event_type=payment_verified&target_type=payment&target_id=p1&start_date=2026-01-01&end_date=2026-01-31&page=2",
		"", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":120`)
	rec.AssertContains(t, `"total_pages":3`)
	rec.AssertContains(t, `"has_next":true`)

	assert.Equal(t, audit.CategoryMembership, ev.last.Category)
	assert.Equal(t, audit.EventPaymentVerified, ev.last.EventType)
	assert.Equal(t, "p1", ev.last.TargetID)
	assert.Equal(t, int64(50), ev.last.Offset)
	require.NotNil(t, ev.last.StartTime)
	require.NotNil(t, ev.last.EndTime)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), *ev.last.EndTime)
}

func TestServeList_BadFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown category", "/?category=billing"},
		{"event outside category", "/?category=auth&event_type=content_created"},
		{"bad start date", "/?start_date=01/02/2026"},
		{"reversed range", "/?start_date=2026-02-01&end_date=2026-01-01"},
	}
	h := newRouter(t, &fakeEvents{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.Serve(h, testutil.NewAuthenticatedRequest("GET", tt.query, "", testutil.AdminUser())).
				AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeList_EmptyIsArray(t *testing.T) {
	rec := testutil.Serve(newRouter(t, &fakeEvents{}), testutil.NewAuthenticatedRequest("GET", "/", "", testutil.AdminUser()))
	rec.AssertContains(t, `"events":[]`)
	rec.AssertContains(t, `"total_pages":1`)
}
