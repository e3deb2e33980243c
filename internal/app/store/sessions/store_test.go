package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/mta-community/mtahub/internal/app/store/sessions"
	"github.com/mta-community/mtahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStore interface {
	Start(ctx context.Context, userID, role, ip, userAgent string) (string, error)
	Touch(ctx context.Context, id string) (bool, error)
	Close(ctx context.Context, id, reason string) error
	CloseForUser(ctx context.Context, userID, reason string) (int64, error)
	CloseInactive(ctx context.Context, threshold time.Time) (int64, error)
	GetByID(ctx context.Context, id string) (*sessions.Session, error)
	GetActiveByUser(ctx context.Context, userID string) ([]sessions.Session, error)
}

func eachStore(t *testing.T, fn func(t *testing.T, s sessionStore)) {
	t.Run("memory", func(t *testing.T) { fn(t, sessions.NewMemory()) })
	t.Run("mongo", func(t *testing.T) { fn(t, sessions.New(testutil.SetupTestDB(t))) })
}

func TestStart_ClosesPreviousLogin(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx, cancel := testutil.TestContext()
		defer cancel()

		first, err := s.Start(ctx, "u-1", "admin", "10.0.0.1", "test-agent")
		require.NoError(t, err)
		second, err := s.Start(ctx, "u-1", "admin", "10.0.0.1", "test-agent")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		open, err := s.Touch(ctx, first)
		require.NoError(t, err)
		assert.False(t, open, "a new login replaces the old session")

		old, err := s.GetByID(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, sessions.ReasonNewLogin, old.EndReason)

		active, err := s.GetActiveByUser(ctx, "u-1")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, second, active[0].ID)
	})
}

func TestCloseForUser_RevokesEverySession(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx, cancel := testutil.TestContext()
		defer cancel()

		mine, err := s.Start(ctx, "u-1", "editor", "", "")
		require.NoError(t, err)
		other, err := s.Start(ctx, "u-2", "editor", "", "")
		require.NoError(t, err)

		n, err := s.CloseForUser(ctx, "u-1", sessions.ReasonRevoked)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		open, err := s.Touch(ctx, mine)
		require.NoError(t, err)
		assert.False(t, open)

		open, err = s.Touch(ctx, other)
		require.NoError(t, err)
		assert.True(t, open, "other users keep their sessions")

		n, err = s.CloseForUser(ctx, "u-1", sessions.ReasonRevoked)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestClose_UnknownIDIsNoOp(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx, cancel := testutil.TestContext()
		defer cancel()

		require.NoError(t, s.Close(ctx, "missing", sessions.ReasonLogout))
		open, err := s.Touch(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, open)

		_, err = s.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, sessions.ErrNotFound)
	})
}

func TestMemory_CloseInactive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := sessions.NewMemory().WithClock(func() time.Time { return now })

	idle, err := m.Start(ctx, "u-1", "viewer", "", "")
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	busy, err := m.Start(ctx, "u-2", "viewer", "", "")
	require.NoError(t, err)

	n, err := m.CloseInactive(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sess, err := m.GetByID(ctx, idle)
	require.NoError(t, err)
	assert.Equal(t, sessions.ReasonInactive, sess.EndReason)
	assert.Equal(t, int64(7200), sess.DurationSecs)

	open, err := m.Touch(ctx, busy)
	require.NoError(t, err)
	assert.True(t, open)
}
