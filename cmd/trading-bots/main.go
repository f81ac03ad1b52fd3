package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trading-bots/internal/api"
	"trading-bots/internal/logger"
	"trading-bots/internal/scheduler"
	"trading-bots/internal/store"
	"trading-bots/internal/types"
)

var cfgFile string

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = logger.Shutdown(shutdownCtx)

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "trading-bots",
		Short:        "Evaluate AI trading bots and execute their decisions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newEvaluateCmd(),
		newEvaluationsCmd(),
		newMigrateCmd(),
		newScheduleCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	var withScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and websocket feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			secret, err := jwtSecret(ctx, a.cfg)
			if err != nil {
				return err
			}
			hub := api.NewHub(a.cfg.Server.AllowedOrigins...)
			router := api.NewRouter(api.NewHandler(a.evaluator, hub), secret)
			handler := api.WithCORS(router, a.cfg.Server.AllowedOrigins)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				hub.Run(gctx)
				return nil
			})
			g.Go(func() error {
				return api.Serve(gctx, a.cfg.Server.Addr, handler)
			})
			if withScheduler {
				s := newScheduler(a, func(out *types.EvaluationOutcome) {
					hub.Broadcast(api.Message{Type: "evaluation", Content: out})
				})
				g.Go(func() error { return s.Run(gctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withScheduler, "schedule", false, "also evaluate active bots on the configured interval")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <bot-id>",
		Short: "Run one evaluation for a bot and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			out := a.evaluator.Evaluate(ctx, args[0])
			if err := printJSON(cmd, out); err != nil {
				return err
			}
			if !out.Success {
				return fmt.Errorf("evaluation failed: %s", out.Error)
			}
			return nil
		},
	}
}

func newEvaluationsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "evaluations <bot-id>",
		Short: "List recent evaluations of a bot, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return printJSON(cmd, a.evaluator.ListEvaluations(ctx, args[0], limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of evaluations")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, cfgFile)
			if err != nil {
				return err
			}
			db, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := store.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info(ctx, "Schema migrated")
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Evaluate every active bot on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return newScheduler(a, nil).Run(ctx)
		},
	}
}

func newScheduler(a *app, onOutcome func(*types.EvaluationOutcome)) *scheduler.Scheduler {
	return scheduler.New(a.repo, a.evaluator, scheduler.Options{
		Interval:    time.Duration(a.cfg.Scheduler.PollSeconds) * time.Second,
		Concurrency: a.cfg.Scheduler.Concurrency,
		OnOutcome:   onOutcome,
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
