package domain

import "strings"

// Status is the lifecycle position of a lead. Transitions are driven by the
// operator; the rules engine only reads the current value.
type Status string

const (
	StatusNewLead      Status = "new_lead"
	StatusInterested   Status = "interested"
	StatusNegotiation  Status = "negotiation"
	StatusConverted    Status = "converted"
	StatusActiveClient Status = "active_client"
	StatusPastClient   Status = "past_client"
	StatusCold         Status = "cold"
	StatusArchived     Status = "archived"
)

var orderedStatuses = []Status{
	StatusNewLead,
	StatusInterested,
	StatusNegotiation,
	StatusConverted,
	StatusActiveClient,
	StatusPastClient,
	StatusCold,
	StatusArchived,
}

var knownStatuses = func() map[Status]struct{} {
	m := make(map[Status]struct{}, len(orderedStatuses))
	for _, s := range orderedStatuses {
		m[s] = struct{}{}
	}
	return m
}()

// IsKnown reports whether s is one of the canonical statuses.
func (s Status) IsKnown() bool {
	_, ok := knownStatuses[s]
	return ok
}

func (s Status) String() string { return string(s) }

// ParseStatus normalizes raw input. Unknown values are returned trimmed and
// unchanged together with ok=false so freeform data survives a round trip.
func ParseStatus(raw string) (Status, bool) {
	trimmed := strings.TrimSpace(raw)
	candidate := Status(strings.ToLower(trimmed))
	if candidate.IsKnown() {
		return candidate, true
	}
	return Status(trimmed), false
}

// AllStatuses returns the canonical statuses in pipeline order.
func AllStatuses() []Status {
	return append([]Status(nil), orderedStatuses...)
}
