package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/hibiken/asynq"
)

const TaskDripSend = "automation.drip.send"

// DripSendPayload identifies one planned drip message. PlannedAt is the
// instant the forecast was computed; a status change after it voids the task.
type DripSendPayload struct {
	LeadID        string    `json:"leadId"`
	SequenceID    string    `json:"sequenceId"`
	StepID        string    `json:"stepId"`
	TriggerStatus string    `json:"triggerStatus"`
	SendDate      string    `json:"sendDate"`
	PlannedAt     time.Time `json:"plannedAt"`
}

// DripTaskID is stable per (lead, step, send date) so replanning never
// enqueues the same message twice.
func DripTaskID(leadID, stepID string, sendDate civil.Date) string {
	return fmt.Sprintf("drip:%s:%s:%s", leadID, stepID, sendDate)
}

func NewDripSendTask(payload DripSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDripSend, data), nil
}

func ParseDripSendPayload(task *asynq.Task) (DripSendPayload, error) {
	var payload DripSendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DripSendPayload{}, err
	}
	return payload, nil
}
