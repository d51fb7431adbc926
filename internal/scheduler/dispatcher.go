package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency_crm_backend/internal/automation"
	"agency_crm_backend/internal/email"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/platform/logger"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Skip reasons reported by DripDispatcher.Dispatch.
const (
	SkipStepRemoved     = "step_removed"
	SkipLeadMissing     = "lead_missing"
	SkipStatusChanged   = "status_changed"
	SkipStatusReentered = "status_reentered"
	SkipNoEmail         = "no_email"
	SkipAlreadySent     = "already_sent"
)

// DispatchStore is the lead persistence the dispatcher needs.
type DispatchStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	HasDispatchSince(ctx context.Context, leadID uuid.UUID, stepID string, since *time.Time) (bool, error)
	RecordDispatch(ctx context.Context, leadID uuid.UUID, stepID string, sendDate civil.Date) (bool, error)
}

// DripDispatcher delivers one planned drip message after re-checking the lead.
type DripDispatcher struct {
	store     DispatchStore
	sequences automation.SequenceSource
	sender    email.Sender
	log       *logger.Logger
}

func NewDripDispatcher(store DispatchStore, sequences automation.SequenceSource, sender email.Sender, log *logger.Logger) *DripDispatcher {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &DripDispatcher{store: store, sequences: sequences, sender: sender, log: log}
}

// ProcessTask implements asynq.Handler.
func (d *DripDispatcher) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDripSendPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	_, _, err = d.Dispatch(ctx, payload)
	return err
}

// Dispatch sends the message unless the lead no longer qualifies. It returns
// whether a message went out and, if not, why.
func (d *DripDispatcher) Dispatch(ctx context.Context, payload DripSendPayload) (bool, string, error) {
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return false, "", fmt.Errorf("invalid lead id: %v: %w", err, asynq.SkipRetry)
	}
	sendDate, err := civil.ParseDate(payload.SendDate)
	if err != nil {
		return false, "", fmt.Errorf("invalid send date: %v: %w", err, asynq.SkipRetry)
	}

	seq, step, ok, err := d.lookupStep(ctx, payload.SequenceID, payload.StepID)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return d.skip(payload, SkipStepRemoved)
	}

	lead, err := d.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return d.skip(payload, SkipLeadMissing)
	}
	if err != nil {
		return false, "", err
	}

	if lead.Status != seq.TriggerStatus {
		return d.skip(payload, SkipStatusChanged)
	}
	if lead.StatusChangedAt != nil && !payload.PlannedAt.IsZero() && lead.StatusChangedAt.After(payload.PlannedAt) {
		return d.skip(payload, SkipStatusReentered)
	}
	if lead.Email == "" {
		return d.skip(payload, SkipNoEmail)
	}

	sent, err := d.store.HasDispatchSince(ctx, lead.ID, step.ID, lead.StatusChangedAt)
	if err != nil {
		return false, "", err
	}
	if sent {
		return d.skip(payload, SkipAlreadySent)
	}

	// Render against the current lead; a broken template goes out verbatim.
	subject, _ := automation.RenderMessage(step.Subject, lead)
	body, _ := automation.RenderMessage(step.MessageTemplate, lead)

	if err := d.sender.SendDripMessage(ctx, lead.Email, subject, body); err != nil {
		return false, "", fmt.Errorf("send drip %s to lead %s: %w", step.ID, lead.ID, err)
	}

	if _, err := d.store.RecordDispatch(ctx, lead.ID, step.ID, sendDate); err != nil {
		return true, "", fmt.Errorf("record drip %s for lead %s: %w: %w", step.ID, lead.ID, err, asynq.SkipRetry)
	}

	if d.log != nil {
		d.log.DripDispatched(payload.LeadID, payload.StepID, payload.SendDate, true, "")
	}
	return true, "", nil
}

func (d *DripDispatcher) lookupStep(ctx context.Context, sequenceID, stepID string) (domain.DripSequence, domain.DripStep, bool, error) {
	seqs, err := d.sequences.Sequences(ctx)
	if err != nil {
		return domain.DripSequence{}, domain.DripStep{}, false, fmt.Errorf("load sequences: %w", err)
	}
	for _, seq := range seqs {
		if seq.ID != sequenceID || !seq.Enabled {
			continue
		}
		for _, step := range seq.Steps {
			if step.ID == stepID {
				return seq, step, true, nil
			}
		}
	}
	return domain.DripSequence{}, domain.DripStep{}, false, nil
}

func (d *DripDispatcher) skip(payload DripSendPayload, reason string) (bool, string, error) {
	if d.log != nil {
		d.log.DripDispatched(payload.LeadID, payload.StepID, payload.SendDate, false, reason)
	}
	return false, reason, nil
}
