package scoring

import (
	"testing"
	"time"

	"agency_crm_backend/internal/leads/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func knownStatusGen() gopter.Gen {
	statuses := domain.AllStatuses()
	values := make([]interface{}, len(statuses))
	for i, s := range statuses {
		values[i] = s
	}
	return gen.OneConstOf(values...)
}

// Property: more than seven idle days is Cold whatever the deal or status.
func TestColdDominatesOtherRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("daysInactive > 7 is always Cold", prop.ForAll(
		func(status domain.Status, idleHours int64, dealCents int64) bool {
			deal := decimal.New(dealCents, -2)
			lead := domain.Lead{
				Status:       status,
				DealValue:    &deal,
				LastActiveAt: testNow.Add(-time.Duration(idleHours) * time.Hour),
			}
			return Score(lead, testNow) == domain.TemperatureCold
		},
		knownStatusGen(),
		gen.Int64Range(8*24, 400*24),
		gen.Int64Range(0, 10_000_000),
	))

	properties.TestingRun(t)
}

// Property: a deal of exactly 500 never produces Hot.
func TestDealOfFiveHundredIsNeverHot(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dealValue == 500 is never Hot", prop.ForAll(
		func(status domain.Status, idleHours int64) bool {
			lead := domain.Lead{
				Status:       status,
				DealValue:    money(500),
				LastActiveAt: testNow.Add(-time.Duration(idleHours) * time.Hour),
			}
			return Score(lead, testNow) != domain.TemperatureHot
		},
		knownStatusGen(),
		gen.Int64Range(0, 30*24),
	))

	properties.TestingRun(t)
}

// Property: scoring is a pure function of its inputs.
func TestScoreIsDeterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("same inputs give same label", prop.ForAll(
		func(status domain.Status, idleHours int64, deal int64) bool {
			lead := domain.Lead{
				Status:       status,
				DealValue:    money(deal),
				LastActiveAt: testNow.Add(-time.Duration(idleHours) * time.Hour),
			}
			return Score(lead, testNow) == Score(lead, testNow)
		},
		knownStatusGen(),
		gen.Int64Range(0, 30*24),
		gen.Int64Range(0, 5000),
	))

	properties.TestingRun(t)
}
