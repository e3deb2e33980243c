package outbox_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/features/outbox"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seed(t *testing.T) (*lifecycle.MemoryOutbox, http.Handler) {
	t.Helper()
	ctx := context.Background()
	q := lifecycle.NewMemoryStore().Outbox()
	now := time.Now().UTC()
	for _, id := range []string{"m1", "m2"} {
		require.NoError(t, q.Enqueue(ctx, models.OutboxMessage{
			ID: id, Kind: models.KindRegistration, To: id + "@example.com",
			Status: models.DeliveryPending, NextAttemptAt: now, CreatedAt: now,
		}))
	}
	// m1 exhausts its attempts
	_, ok, err := q.ClaimDue(ctx, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, q.MarkFailed(ctx, "m1", "smtp: 550 mailbox unavailable"))

	return q, outbox.Routes(outbox.NewHandler(q, nil, zap.NewNop()), testutil.SessionManager(t))
}

func TestList_FailedOnly(t *testing.T) {
	_, r := seed(t)
	rec := testutil.Serve(r, testutil.NewAuthenticatedRequest("GET", "/?status=failed", "", testutil.ViewerUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"id":"m1"`)
	rec.AssertContains(t, "550 mailbox unavailable")
	assert.NotContains(t, rec.Body.String(), `"id":"m2"`)

	testutil.Serve(r, testutil.NewAuthenticatedRequest("GET", "/?status=lost", "", testutil.ViewerUser())).
		AssertStatus(t, http.StatusBadRequest)
}

func TestRetry(t *testing.T) {
	q, r := seed(t)

	testutil.Serve(r, testutil.NewAuthenticatedRequest("POST", "/m1/retry", "", testutil.ViewerUser())).
		AssertStatus(t, http.StatusForbidden)
	testutil.Serve(r, testutil.NewAuthenticatedRequest("POST", "/m2/retry", "", testutil.AdminUser())).
		AssertStatus(t, http.StatusConflict)
	testutil.Serve(r, testutil.NewAuthenticatedRequest("POST", "/nope/retry", "", testutil.AdminUser())).
		AssertStatus(t, http.StatusNotFound)
	testutil.Serve(r, testutil.NewAuthenticatedRequest("POST", "/m1/retry", "", testutil.AdminUser())).
		AssertStatus(t, http.StatusOK)

	pending, err := q.List(context.Background(), models.DeliveryPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, m := range pending {
		if m.ID == "m1" {
			assert.Zero(t, m.Attempts)
		}
	}
}
