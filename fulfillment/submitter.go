package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/tbxark/cakeagent/order"
)

// WorkflowStarter is the part of client.Client the submitter needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Submitter places orders by starting CakeOrderWorkflow. It does not wait
// for the workflow to finish.
type Submitter struct {
	starter   WorkflowStarter
	taskQueue string
}

func NewSubmitter(starter WorkflowStarter, taskQueue string) *Submitter {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	return &Submitter{starter: starter, taskQueue: taskQueue}
}

func (s *Submitter) PlaceOrder(ctx context.Context, state order.State) (string, error) {
	ref := NewReference()
	run, err := s.starter.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowIDPrefix + ref,
		TaskQueue: s.taskQueue,
	}, CakeOrderWorkflow, OrderInput{Reference: ref, Order: state})
	if err != nil {
		return "", fmt.Errorf("start cake order workflow: %w", err)
	}
	slog.Info("Cake order workflow started", "reference", ref, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return ref, nil
}

// NewReference returns a short customer-facing order reference.
func NewReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CAKE-" + id[:10]
}
