// Package events defines the lead lifecycle events and re-exports the bus
// from platform/events so modules import a single package.
package events

import (
	"agency_crm_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
	SubscribeAll   = events.SubscribeAll
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadUpserted is published when a lead is created or its attributes change.
type LeadUpserted struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Created bool      `json:"created"`
}

func (e LeadUpserted) EventName() string { return "leads.lead.upserted" }

// LeadStatusChanged is published when a lead moves to another lifecycle status.
// Drip sequences key off the new status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Exports Domain Events
// =============================================================================

// LeadBackupArchived is published after a full-roster CSV was stored.
type LeadBackupArchived struct {
	BaseEvent
	ObjectKey string `json:"objectKey"`
	Rows      int    `json:"rows"`
}

func (e LeadBackupArchived) EventName() string { return "exports.backup.archived" }
