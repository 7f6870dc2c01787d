package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"

	"github.com/tbxark/cakeagent/fulfillment"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal fulfillment worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialTemporal(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		w := fulfillment.NewWorker(c, cfg.Temporal.TaskQueue, fulfillment.NewActivities(nil, cfg.GetLeadTime()))
		slog.Info("Starting fulfillment worker", "host", cfg.Temporal.HostPort, "task_queue", cfg.Temporal.TaskQueue)
		return w.Run(worker.InterruptCh())
	},
}
