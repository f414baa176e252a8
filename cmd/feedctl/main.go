package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"feedhub/internal/app"
	"feedhub/internal/infra/fetcher"
	"feedhub/internal/observability/logging"
	"feedhub/internal/pkg/config"
)

// Version is set at build time.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logging.NewTextLogger()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every command.
type globals struct {
	logger      *slog.Logger
	databaseURL string
	configFile  string
	concurrency int
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	g := &globals{logger: logger}

	root := &cobra.Command{
		Use:           "feedctl",
		Short:         "Manage feeds and run refresh cycles by hand",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.databaseURL, "database-url", "", "database URL (default $DATABASE_URL)")
	root.PersistentFlags().StringVar(&g.configFile, "config", os.Getenv("WORKER_CONFIG_FILE"), "YAML configuration file")
	root.PersistentFlags().IntVar(&g.concurrency, "concurrency", 4, "feeds refreshed at once")

	root.AddCommand(
		newMigrateCmd(g),
		newRefreshCmd(g),
		newRefreshFeedCmd(g),
		newGCCmd(g),
		newAddFeedCmd(g),
		newImportOPMLCmd(g),
		newExportOPMLCmd(g),
		newVersionCmd(),
	)
	return root
}

// open builds the application from flags, the configuration file and the
// environment, in that order of precedence.
func (g *globals) open(ctx context.Context, migrate bool) (*app.App, error) {
	src := config.EnvSource()
	if g.configFile != "" {
		var err error
		if src, err = config.NewSource(g.configFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", g.configFile, err)
		}
	}

	dsn := g.databaseURL
	if dsn == "" {
		dsn, _ = src.Get("DATABASE_URL")
	}

	fetchConfig, err := fetcher.LoadConfig(src)
	if err != nil {
		return nil, fmt.Errorf("load fetcher configuration: %w", err)
	}

	return app.New(ctx, app.Options{
		DSN:         dsn,
		Fetcher:     fetchConfig,
		Concurrency: g.concurrency,
		Migrate:     migrate,
	}, g.logger)
}

// withApp opens the application, runs fn and closes it.
func (g *globals) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := logging.WithLogger(cmd.Context(), g.logger)
	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			g.logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	return fn(ctx, a)
}
