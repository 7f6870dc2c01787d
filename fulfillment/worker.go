package fulfillment

import (
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Register adds the workflow and activities to a worker.
func Register(r worker.Registry, acts *Activities) {
	r.RegisterWorkflow(CakeOrderWorkflow)
	r.RegisterActivity(acts.ValidateOrder)
	r.RegisterActivity(acts.QuoteOrder)
	r.RegisterActivity(acts.ScheduleBake)
	r.RegisterActivity(acts.NotifyBakery)
}

func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{
		Identity:                               "cake-order-worker-" + hostname(),
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})
	Register(w, acts)
	return w
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
