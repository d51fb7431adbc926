package automation

import (
	"time"

	"agency_crm_backend/internal/leads/domain"
	leadtransport "agency_crm_backend/internal/leads/transport"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// ForecastRequest plans over a caller-supplied snapshot instead of the stored roster.
type ForecastRequest struct {
	Leads       []leadtransport.LeadSnapshot `json:"leads" validate:"max=5000,dive"`
	Sequences   []SequenceSpec               `json:"sequences" validate:"max=200"`
	Now         *time.Time                   `json:"now,omitempty"`
	HorizonDays *int                         `json:"horizonDays,omitempty"`
}

type ForecastEntryView struct {
	LeadID        uuid.UUID  `json:"leadId"`
	LeadName      string     `json:"leadName"`
	SequenceID    string     `json:"sequenceId"`
	StepID        string     `json:"stepId"`
	Subject       string     `json:"subject"`
	Message       string     `json:"message"`
	SendDate      civil.Date `json:"sendDate"`
	TriggerStatus string     `json:"triggerStatus"`
}

type WarningView struct {
	Kind        WarningKind `json:"kind"`
	Status      string      `json:"status"`
	SequenceIDs []string    `json:"sequenceIds"`
	StepID      string      `json:"stepId,omitempty"`
	Message     string      `json:"message"`
}

type ForecastResponse struct {
	Today       civil.Date          `json:"today"`
	HorizonDays int                 `json:"horizonDays"`
	Entries     []ForecastEntryView `json:"entries"`
	Warnings    []WarningView       `json:"warnings"`
}

type SequenceListResponse struct {
	Items []SequenceSpec `json:"items"`
}

func toForecastResponse(today civil.Date, horizonDays int, f Forecast) ForecastResponse {
	entries := make([]ForecastEntryView, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = ForecastEntryView{
			LeadID:        e.LeadID,
			LeadName:      e.LeadName,
			SequenceID:    e.SequenceID,
			StepID:        e.StepID,
			Subject:       e.Subject,
			Message:       e.Message,
			SendDate:      e.SendDate,
			TriggerStatus: e.TriggerStatus.String(),
		}
	}

	warnings := make([]WarningView, len(f.Warnings))
	for i, w := range f.Warnings {
		warnings[i] = WarningView{
			Kind:        w.Kind,
			Status:      w.Status.String(),
			SequenceIDs: w.SequenceIDs,
			StepID:      w.StepID,
			Message:     w.Message,
		}
	}

	return ForecastResponse{Today: today, HorizonDays: horizonDays, Entries: entries, Warnings: warnings}
}

func toSequenceList(seqs []domain.DripSequence) SequenceListResponse {
	items := make([]SequenceSpec, len(seqs))
	for i, s := range seqs {
		items[i] = SpecFromDomain(s)
	}
	return SequenceListResponse{Items: items}
}
