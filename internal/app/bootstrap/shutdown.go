// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, flushes traces and closes the DB client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if s := deps.svc; s != nil {
		if s.runner != nil {
			s.runner.Stop()
		}
		if s.delivery != nil {
			s.delivery.Stop()
		}
		if s.RegisterLimiter != nil {
			s.RegisterLimiter.Stop()
		}
		if s.LoginLimiter != nil {
			s.LoginLimiter.Stop()
		}
		if s.traceShutdown != nil {
			if err := s.traceShutdown(ctx); err != nil {
				logger.Warn("tracing shutdown failed", zap.Error(err))
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
