package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"feedhub/internal/app"
	"feedhub/internal/infra/opml"
)

func newMigrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.Dialect)
			return nil
		},
	}
}

func newRefreshCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one full refresh cycle, including garbage collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Refresh.RefreshAll(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "run %s: %d feeds, %d refreshed, %d failed, %d new articles in %s\n",
					stats.RunID, stats.Feeds, stats.Refreshed, stats.Failed, stats.Inserted,
					stats.Duration.Round(time.Millisecond))
				if stats.GC != nil {
					fmt.Fprintf(out, "gc: %d candidates, %d deleted\n", stats.GC.Candidates, stats.GC.Deleted)
				}
				return nil
			})
		},
	}
}

func newRefreshFeedCmd(g *globals) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "refresh-feed",
		Short: "Refresh a single feed without garbage collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				feed, err := a.Feeds.Get(ctx, id)
				if err != nil {
					return err
				}
				if feed == nil {
					return fmt.Errorf("feed %d not found", id)
				}
				res, err := a.Refresh.RefreshFeed(ctx, feed)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "feed %d: %d articles (%d new, %d kept, %d backfilled)\n",
					res.FeedID, res.Size, res.Inserted, res.Reused, res.Backfilled)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "feed id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newGCCmd(g *globals) *cobra.Command {
	var minAge time.Duration
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete articles that no feed window or favorite references",
		Long: `Delete articles that no feed window or favorite references.

Do not run gc while the worker's refresh cycle is running. A cycle may reuse
an old unreferenced article and save it into a window after gc has already
deleted it. Stop the worker, or run gc between cycles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if minAge < 0 {
				return fmt.Errorf("--min-age must not be negative")
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Refresh.CollectGarbage(ctx, time.Now().Add(-minAge))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "gc: %d candidates, %d retained, %d deleted\n",
					stats.Candidates, stats.Retained, stats.Deleted)
				return nil
			})
		},
	}
	// Articles younger than min-age may belong to a cycle still in progress.
	cmd.Flags().DurationVar(&minAge, "min-age", 10*time.Minute, "only consider articles created at least this long ago")
	return cmd
}

func newAddFeedCmd(g *globals) *cobra.Command {
	var categoryID int64
	cmd := &cobra.Command{
		Use:   "add-feed URL",
		Short: "Subscribe a category to a feed, creating the feed if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Refresh.AddFeed(ctx, args[0], categoryID)
				if err != nil {
					return err
				}
				verb := "attached"
				if res.Created {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s feed %d (%s)\n", verb, res.ID, res.Name)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newImportOPMLCmd(g *globals) *cobra.Command {
	var categoryID int64
	cmd := &cobra.Command{
		Use:   "import-opml FILE",
		Short: "Add every feed of an OPML file to a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			subs, err := opml.Parse(f)
			if err != nil {
				return err
			}

			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				var failed int
				for _, sub := range subs {
					res, err := a.Refresh.AddFeed(ctx, sub.URL, categoryID)
					if err != nil {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						failed++
						fmt.Fprintf(out, "FAIL %s: %v\n", sub.URL, err)
						continue
					}
					fmt.Fprintf(out, "ok   %s -> feed %d\n", sub.URL, res.ID)
				}
				fmt.Fprintf(out, "imported %d of %d feeds\n", len(subs)-failed, len(subs))
				if failed > 0 {
					return errors.New("some feeds could not be imported")
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newExportOPMLCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-opml",
		Short: "Write every stored feed as OPML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				feeds, err := a.Feeds.List(ctx)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					return opml.Write(cmd.OutOrStdout(), "feedhub subscriptions", feeds)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := opml.Write(f, "feedhub subscriptions", feeds); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedctl %s\n", Version)
		},
	}
}
