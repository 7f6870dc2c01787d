package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/fulfillment"
	"github.com/tbxark/cakeagent/server"
)

var embedWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat and form API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cm, err := newChatModel(ctx, cfg)
	if err != nil {
		return err
	}

	var manager agent.OrderManager = agent.LogOrderManager{}
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Temporal.Enabled {
		tc, err := dialTemporal(cfg)
		if err != nil {
			return err
		}
		defer tc.Close()
		manager = fulfillment.NewSubmitter(tc, cfg.Temporal.TaskQueue)
		if embedWorker {
			w := fulfillment.NewWorker(tc, cfg.Temporal.TaskQueue, fulfillment.NewActivities(nil, cfg.GetLeadTime()))
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()
			slog.Info("Fulfillment worker started", "task_queue", cfg.Temporal.TaskQueue)
		}
	}

	flow, err := buildFlow(cfg, cm, manager)
	if err != nil {
		return err
	}
	sessions := buildSessions(cfg, flow)

	var opts []server.Option
	if cfg.Server.StaticDir != "" {
		opts = append(opts, server.WithStaticDir(cfg.Server.StaticDir))
	}
	srv := server.New(sessions, opts...)

	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		return sessions.RunJanitor(ctx, janitorInterval(cfg.GetSessionTTL()))
	})
	return ignoreCanceled(g.Wait())
}

func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return max(ttl/4, time.Minute)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
