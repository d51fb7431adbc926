package exports

import (
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"
)

// Predicate selects leads for export. Implementations must be pure.
type Predicate func(domain.Lead) bool

// All accepts every lead.
func All(domain.Lead) bool { return true }

// And accepts a lead when every predicate does. Nil predicates are skipped.
func And(predicates ...Predicate) Predicate {
	return func(lead domain.Lead) bool {
		for _, p := range predicates {
			if p != nil && !p(lead) {
				return false
			}
		}
		return true
	}
}

// ByStatus accepts leads in any of statuses.
func ByStatus(statuses ...domain.Status) Predicate {
	set := make(map[domain.Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(lead domain.Lead) bool {
		_, ok := set[lead.Status]
		return ok
	}
}

// ByTag accepts leads carrying tag.
func ByTag(tag string) Predicate {
	return func(lead domain.Lead) bool {
		return lead.HasTag(tag)
	}
}

// HighQualityOnly accepts leads flagged as best quality.
func HighQualityOnly(lead domain.Lead) bool {
	return lead.IsHighQuality
}

// ActiveBetween accepts leads last active within [from, to]. A zero bound is open.
func ActiveBetween(from, to time.Time) Predicate {
	return func(lead domain.Lead) bool {
		if !from.IsZero() && lead.LastActiveAt.Before(from) {
			return false
		}
		if !to.IsZero() && lead.LastActiveAt.After(to) {
			return false
		}
		return true
	}
}

// NameContains matches a case-insensitive substring of the name, email or phone.
func NameContains(query string) Predicate {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(lead domain.Lead) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(lead.Name), query) ||
			strings.Contains(strings.ToLower(lead.Email), query) ||
			strings.Contains(lead.Phone, query)
	}
}
