// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime is the state shared by the root command and its subcommands.
type runtime struct {
	configPath string
	memory     bool
	verbose    bool

	app *App
	// preset is an App supplied by the caller; initApp is skipped when set.
	preset bool
}

// NewRootCommand returns the mtactl command tree.
func NewRootCommand() *cobra.Command {
	return newRoot(&runtime{})
}

// NewRootCommandWithApp returns a command tree bound to app. Tests use it to
// inspect state between invocations.
func NewRootCommandWithApp(app *App) *cobra.Command {
	return newRoot(&runtime{app: app, preset: true})
}

func newRoot(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "mtactl",
		Short:         "mtactl - operate an MTA Hub deployment",
		Long:          `Administrative commands for MTA Hub: bootstrap staff accounts, run the expiry sweep, and inspect or drain the email outbox.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rt.preset {
				return nil
			}
			return rt.initApp(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.preset || rt.app == nil {
				return nil
			}
			_ = rt.app.Log.Sync()
			return rt.app.Close(context.Background())
		},
	}

	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "mtactl.yaml", "Path to the config file")
	root.PersistentFlags().BoolVar(&rt.memory, "memory", false, "Use in-process stores instead of MongoDB")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		createAdminCmd(rt),
		expireCmd(rt),
		outboxCmd(rt),
		statsCmd(rt),
	)
	return root
}

func (rt *runtime) initApp(cmd *cobra.Command) error {
	cfg, err := LoadConfig(rt.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if rt.verbose {
		level = "debug"
	}
	logger, err := NewLogger(level, cfg.Log.File, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if rt.memory {
		logger.Debug("using in-memory stores")
		rt.app, err = NewMemoryApp(cfg, logger)
	} else {
		rt.app, err = NewMongoApp(cmd.Context(), cfg, logger)
	}
	if err != nil {
		return err
	}
	return nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }

func logger(rt *runtime) *zap.Logger { return rt.app.Log }
