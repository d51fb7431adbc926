package domain

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// DripSequence is an automation ruleset bound to one lifecycle status.
// At most one enabled sequence per trigger status is expected; the planner
// tolerates violations by using the first one.
type DripSequence struct {
	ID            string
	Name          string
	TriggerStatus Status
	Enabled       bool
	Steps         []DripStep
}

// DripStep is one message in a sequence. DayDelay counts days since the lead
// entered the trigger status. Steps are not assumed to be sorted.
type DripStep struct {
	ID              string
	DayDelay        int
	Subject         string
	MessageTemplate string
}

// ForecastEntry is one projected outbound message.
type ForecastEntry struct {
	LeadID        uuid.UUID
	LeadName      string
	SequenceID    string
	StepID        string
	Subject       string
	Message       string
	SendDate      civil.Date
	TriggerStatus Status
}
