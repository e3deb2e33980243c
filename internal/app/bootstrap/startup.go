// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/app/system/tracing"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: timeouts,
// tracing, the service graph and the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.Timeouts.Short,
		Medium: appCfg.Timeouts.Medium,
		Long:   appCfg.Timeouts.Long,
		Sweep:  appCfg.Timeouts.Sweep,
	})

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    appCfg.OTelEndpoint,
		Insecure:    appCfg.OTelInsecure,
		ServiceName: "mtahub",
		Environment: coreCfg.Env,
	}, logger)
	if err != nil {
		return err
	}
	deps.svc.traceShutdown = shutdown

	if err := deps.svc.build(appCfg, deps, logger); err != nil {
		return err
	}

	deps.svc.delivery.Start()
	deps.svc.runner.Start()
	return nil
}
