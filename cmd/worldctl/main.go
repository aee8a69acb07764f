package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"worldforge/internal/app"
	"worldforge/internal/config"
	"worldforge/internal/domain"
	"worldforge/internal/service"
	sharedLogger "worldforge/shared/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// backend is what the commands need from the application.
type backend interface {
	Worlds() *service.WorldService
	Advance(ctx context.Context, id domain.WorldID, years int) (*service.AdvanceResult, error)
	Close()
}

// backendFactory builds the backend once flags are parsed.
type backendFactory func(cmd *cobra.Command) (backend, error)

type appBackend struct {
	app    *app.App
	logger *zap.Logger
}

func (b *appBackend) Worlds() *service.WorldService { return b.app.Worlds }

func (b *appBackend) Advance(ctx context.Context, id domain.WorldID, years int) (*service.AdvanceResult, error) {
	return b.app.Advancement.AdvanceTime(ctx, id, years)
}

func (b *appBackend) Close() {
	b.app.Close()
	_ = b.logger.Sync()
}

type globalOptions struct {
	envFile string
	verbose bool
	timeout time.Duration
}

func appFactory(opts *globalOptions) backendFactory {
	return func(cmd *cobra.Command) (backend, error) {
		cfg, err := config.LoadConfig(opts.envFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		level := "warn"
		if opts.verbose {
			level = "debug"
		}
		logger, err := sharedLogger.New(sharedLogger.Config{
			Level:      level,
			Encoding:   "console",
			OutputPath: "stderr",
			Service:    "worldctl",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a, err := app.Build(cmd.Context(), cfg, logger)
		if err != nil {
			_ = logger.Sync()
			return nil, err
		}
		return &appBackend{app: a, logger: logger}, nil
	}
}

func newRootCmd(factory backendFactory, opts *globalOptions) *cobra.Command {
	var be backend

	root := &cobra.Command{
		Use:   "worldctl",
		Short: "Operate world histories from the command line",
		Long: `worldctl inspects and maintains the worlds kept by the world history
service. It reads the same configuration as the server: an optional .env
file, the environment and /run/secrets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
				return nil
			}
			var err error
			be, err = factory(cmd)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if be != nil {
				be.Close()
				be = nil
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to an optional .env file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Upper bound for an advancement")

	get := func() backend { return be }
	root.AddCommand(
		newListCmd(get),
		newShowCmd(get),
		newExportCmd(get),
		newImportCmd(get),
		newDeleteCmd(get),
		newAdvanceCmd(get, opts),
	)
	return root
}

func main() {
	opts := &globalOptions{}
	rootCmd := newRootCmd(appFactory(opts), opts)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
