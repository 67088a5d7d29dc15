package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup is the task type for pre-populating dashboard caches.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload scopes a warmup run. An empty Company warms every
// company discovered from existing job cards plus the unscoped dashboard.
type DashboardWarmupPayload struct {
	Company string `json:"company,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(company string) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Company: company})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
