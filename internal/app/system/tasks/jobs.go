// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/mta-community/mtahub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Expirer is the slice of the lifecycle manager the sweep needs.
type Expirer interface {
	ExpireLapsed(ctx context.Context, actor authz.Actor) (int64, error)
}

// StateCleaner removes expired OAuth state tokens.
type StateCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionCloser ends sessions that have gone idle.
type SessionCloser interface {
	CloseInactive(ctx context.Context, threshold time.Time) (int64, error)
}

// ExpirySweepJob persists "expired" for active members past their end date.
func ExpirySweepJob(mgr Expirer, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "membership-expiry-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := mgr.ExpireLapsed(ctx, authz.System)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("expired lapsed memberships", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore StateCleaner, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// SessionCleanupJob closes sessions idle longer than maxIdle so their
// cookies stop authenticating and the login history shows when they ended.
func SessionCleanupJob(closer SessionCloser, logger *zap.Logger, maxIdle time.Duration) Job {
	return Job{
		Name:     "session-cleanup",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := closer.CloseInactive(ctx, time.Now().UTC().Add(-maxIdle))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("closed inactive sessions", zap.Int64("count", count))
			}
			return nil
		},
	}
}
