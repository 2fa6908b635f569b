package engine

import (
	"context"

	"go-claims/internal/common/errs"
	"go-claims/internal/features/workflow"
)

// APITask is the handler behind an API step's task name.
type APITask func(ctx context.Context, run *Run, cfg workflow.APIConfig) error

func defaultTasks() map[string]APITask {
	return map[string]APITask{
		workflow.APITaskSendNotification: sendNotification,
	}
}

// sendNotification queues the rendered template for the claim's customer.
// Delivery happens after commit and never fails the step.
func sendNotification(_ context.Context, run *Run, cfg workflow.APIConfig) error {
	if cfg.Template == "" {
		return errs.Configuration("Missing template in sendNotification API config.")
	}
	run.Notify(cfg.Template)
	return nil
}
