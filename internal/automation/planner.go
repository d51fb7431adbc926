// Package automation projects and dispatches drip sequence messages.
//
// The Planner is pure: it reads lead and sequence snapshots and never mutates
// them. Service wires it to storage, caching and HTTP.
package automation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"

	"cloud.google.com/go/civil"
)

// MissingStatusChangePolicy decides how leads without a recorded status
// change instant are planned.
type MissingStatusChangePolicy int

const (
	// StatusChangeAsNow treats the lead as having entered its status at
	// evaluation time, so daysInStatus is always 0.
	StatusChangeAsNow MissingStatusChangePolicy = iota
	// StatusChangeSkip leaves such leads out of the forecast.
	StatusChangeSkip
)

// ParseMissingStatusChangePolicy maps the config value ("now" or "skip").
func ParseMissingStatusChangePolicy(raw string) (MissingStatusChangePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "now":
		return StatusChangeAsNow, nil
	case "skip":
		return StatusChangeSkip, nil
	default:
		return StatusChangeAsNow, fmt.Errorf("unknown missing status change policy %q", raw)
	}
}

func (p MissingStatusChangePolicy) String() string {
	if p == StatusChangeSkip {
		return "skip"
	}
	return "now"
}

// WarningKind classifies recoverable configuration problems.
type WarningKind string

const (
	// WarningAmbiguousSequence: several enabled sequences share a trigger
	// status. The first one in input order is used.
	WarningAmbiguousSequence WarningKind = "ambiguous_sequence"
	// WarningTemplate: a message template failed to render and was emitted verbatim.
	WarningTemplate WarningKind = "template_error"
)

// Warning is surfaced to the caller next to the forecast; it never aborts planning.
type Warning struct {
	Kind        WarningKind
	Status      domain.Status
	SequenceIDs []string
	StepID      string
	Message     string
}

// Forecast is the planner output.
type Forecast struct {
	Entries  []domain.ForecastEntry
	Warnings []Warning
}

// PlannerOptions configures a Planner.
type PlannerOptions struct {
	// Location turns the evaluation instant into a calendar date. Defaults to UTC.
	Location            *time.Location
	MissingStatusChange MissingStatusChangePolicy
}

// Planner projects upcoming drip messages.
type Planner struct {
	loc    *time.Location
	policy MissingStatusChangePolicy
}

// NewPlanner creates a Planner.
func NewPlanner(opts PlannerOptions) *Planner {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Planner{loc: loc, policy: opts.MissingStatusChange}
}

// Location returns the calendar location used for send dates.
func (p *Planner) Location() *time.Location { return p.loc }

// Forecast returns the messages that will be sent within horizonDays of now,
// sorted by send date. Entries with the same date keep lead input order, then
// step input order. Steps whose delay has already elapsed are never emitted.
func (p *Planner) Forecast(leads []domain.Lead, sequences []domain.DripSequence, now time.Time, horizonDays int) (Forecast, error) {
	if horizonDays < 0 {
		return Forecast{}, apperr.Validationf("horizonDays must be >= 0, got %d", horizonDays).WithOp("automation.Forecast")
	}

	active, warnings := indexSequences(sequences)
	today := civil.DateOf(now.In(p.loc))
	entries := make([]domain.ForecastEntry, 0)
	templateWarned := make(map[string]struct{})

	for _, lead := range leads {
		if !lead.Status.IsKnown() {
			continue
		}
		seq, ok := active[lead.Status]
		if !ok {
			continue
		}

		reference := now
		if lead.StatusChangedAt != nil {
			reference = *lead.StatusChangedAt
		} else if p.policy == StatusChangeSkip {
			continue
		}

		daysInStatus := domain.WholeDaysBetween(reference, now)
		if daysInStatus < 0 {
			daysInStatus = 0
		}

		for _, step := range seq.Steps {
			if step.DayDelay <= daysInStatus {
				continue
			}
			daysUntilSend := step.DayDelay - daysInStatus
			if daysUntilSend < 0 || daysUntilSend > horizonDays {
				continue
			}

			subject, subjectErr := RenderMessage(step.Subject, lead)
			message, messageErr := RenderMessage(step.MessageTemplate, lead)
			if err := firstErr(subjectErr, messageErr); err != nil {
				if _, seen := templateWarned[step.ID]; !seen {
					templateWarned[step.ID] = struct{}{}
					warnings = append(warnings, Warning{
						Kind:        WarningTemplate,
						Status:      seq.TriggerStatus,
						SequenceIDs: []string{seq.ID},
						StepID:      step.ID,
						Message:     err.Error(),
					})
				}
			}

			entries = append(entries, domain.ForecastEntry{
				LeadID:        lead.ID,
				LeadName:      lead.Name,
				SequenceID:    seq.ID,
				StepID:        step.ID,
				Subject:       subject,
				Message:       message,
				SendDate:      today.AddDays(daysUntilSend),
				TriggerStatus: seq.TriggerStatus,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SendDate.Before(entries[j].SendDate)
	})

	return Forecast{Entries: entries, Warnings: warnings}, nil
}

// indexSequences maps each trigger status to its first enabled sequence and
// reports one warning per status claimed by more than one enabled sequence.
func indexSequences(sequences []domain.DripSequence) (map[domain.Status]domain.DripSequence, []Warning) {
	active := make(map[domain.Status]domain.DripSequence)
	claimed := make(map[domain.Status][]string)
	order := make([]domain.Status, 0)

	for _, seq := range sequences {
		if !seq.Enabled {
			continue
		}
		if _, ok := claimed[seq.TriggerStatus]; !ok {
			order = append(order, seq.TriggerStatus)
			active[seq.TriggerStatus] = seq
		}
		claimed[seq.TriggerStatus] = append(claimed[seq.TriggerStatus], seq.ID)
	}

	warnings := make([]Warning, 0)
	for _, status := range order {
		ids := claimed[status]
		if len(ids) < 2 {
			continue
		}
		warnings = append(warnings, Warning{
			Kind:        WarningAmbiguousSequence,
			Status:      status,
			SequenceIDs: ids,
			Message:     fmt.Sprintf("%d enabled sequences trigger on %q; using %q", len(ids), status, ids[0]),
		})
	}

	return active, warnings
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
