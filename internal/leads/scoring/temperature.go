// Package scoring classifies leads by urgency for the dashboard.
package scoring

import (
	"time"

	"agency_crm_backend/internal/leads/domain"

	"github.com/shopspring/decimal"
)

const (
	// coldAfterDays: strictly more inactive days than this is Cold.
	coldAfterDays = 7
	// hotWithinDays: strictly fewer inactive days than this can be Hot.
	hotWithinDays = 3
	// warmWithinDays: strictly fewer inactive days than this can be Warm.
	warmWithinDays = 2
)

// hotDealThreshold: deal values strictly above this can be Hot.
var hotDealThreshold = decimal.NewFromInt(500)

// Score returns the temperature of lead at now. Rules are evaluated in order
// and the first match wins. Leads with an unrecognized status are unscored and
// always Neutral.
func Score(lead domain.Lead, now time.Time) domain.Temperature {
	if !lead.Status.IsKnown() {
		return domain.TemperatureNeutral
	}

	daysInactive := domain.WholeDaysBetween(lead.LastActiveAt, now)

	switch {
	case daysInactive > coldAfterDays:
		return domain.TemperatureCold
	case lead.DealValueOrZero().GreaterThan(hotDealThreshold) && daysInactive < hotWithinDays:
		return domain.TemperatureHot
	case isEarlyStage(lead.Status) && daysInactive < warmWithinDays:
		return domain.TemperatureWarm
	default:
		return domain.TemperatureNeutral
	}
}

func isEarlyStage(status domain.Status) bool {
	return status == domain.StatusNewLead || status == domain.StatusInterested
}

// Scored pairs a lead with its temperature.
type Scored struct {
	Lead        domain.Lead
	Temperature domain.Temperature
}

// ScoreAll scores every lead at the same instant, preserving input order.
func ScoreAll(leads []domain.Lead, now time.Time) []Scored {
	out := make([]Scored, len(leads))
	for i, lead := range leads {
		out[i] = Scored{Lead: lead, Temperature: Score(lead, now)}
	}
	return out
}
