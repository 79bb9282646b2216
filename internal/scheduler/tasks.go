package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLeadRescore = "leads.rescore"

// LeadRescorePayload asks the worker to rescore leads last scored before
// StaleBefore. An empty TenantID spans every tenant; Limit <= 0 means no limit.
type LeadRescorePayload struct {
	TenantID    string    `json:"tenantId,omitempty"`
	StaleBefore time.Time `json:"staleBefore"`
	Limit       int       `json:"limit"`
}

func NewLeadRescoreTask(payload LeadRescorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRescore, data), nil
}

func ParseLeadRescorePayload(task *asynq.Task) (LeadRescorePayload, error) {
	var payload LeadRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRescorePayload{}, err
	}
	return payload, nil
}
