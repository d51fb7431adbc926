package automation

import (
	"testing"
	"time"

	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func daysAgo(days int) *time.Time {
	t := testNow.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func money(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testLead(name string, status domain.Status, statusChangedAt *time.Time) domain.Lead {
	return domain.Lead{
		ID:              uuid.New(),
		Name:            name,
		Status:          status,
		LastActiveAt:    testNow,
		StatusChangedAt: statusChangedAt,
	}
}

func testSequence(id string, status domain.Status, steps ...domain.DripStep) domain.DripSequence {
	return domain.DripSequence{ID: id, Name: id, TriggerStatus: status, Enabled: true, Steps: steps}
}

func step(id string, delay int) domain.DripStep {
	return domain.DripStep{ID: id, DayDelay: delay, Subject: "Step " + id, MessageTemplate: "Hi {{name}}"}
}

func TestForecastInterestedScenario(t *testing.T) {
	lead := domain.Lead{
		ID:              uuid.New(),
		Name:            "Acme Bakery",
		Status:          domain.StatusInterested,
		DealValue:       money(1200),
		LastActiveAt:    *daysAgo(1),
		StatusChangedAt: daysAgo(2),
	}
	seq := testSequence("nurture", domain.StatusInterested, step("day-1", 1), step("day-5", 5))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(got.Entries), got.Entries)
	}
	entry := got.Entries[0]
	if entry.StepID != "day-5" {
		t.Fatalf("expected day-5 step, got %s", entry.StepID)
	}
	want := civil.Date{Year: 2026, Month: time.May, Day: 23}
	if entry.SendDate != want {
		t.Fatalf("expected send date %s, got %s", want, entry.SendDate)
	}
	if entry.Message != "Hi Acme Bakery" {
		t.Fatalf("expected resolved message, got %q", entry.Message)
	}
	if entry.LeadID != lead.ID || entry.SequenceID != "nurture" || entry.TriggerStatus != domain.StatusInterested {
		t.Fatalf("unexpected entry identity: %+v", entry)
	}
	if len(got.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", got.Warnings)
	}
}

func TestForecastDuplicateTriggerUsesFirstSequence(t *testing.T) {
	lead := testLead("Beta", domain.StatusNewLead, daysAgo(0))
	first := testSequence("welcome-a", domain.StatusNewLead, step("a-2", 2))
	second := testSequence("welcome-b", domain.StatusNewLead, step("b-2", 2))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{first, second}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].SequenceID != "welcome-a" {
		t.Fatalf("expected one entry from welcome-a, got %+v", got.Entries)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", got.Warnings)
	}
	w := got.Warnings[0]
	if w.Kind != WarningAmbiguousSequence || w.Status != domain.StatusNewLead {
		t.Fatalf("unexpected warning: %+v", w)
	}
	if len(w.SequenceIDs) != 2 || w.SequenceIDs[0] != "welcome-a" || w.SequenceIDs[1] != "welcome-b" {
		t.Fatalf("unexpected warning sequence ids: %v", w.SequenceIDs)
	}
}

func TestForecastDisabledSequenceDoesNotCountAsDuplicate(t *testing.T) {
	lead := testLead("Gamma", domain.StatusNewLead, daysAgo(0))
	disabled := testSequence("old", domain.StatusNewLead, step("old-1", 1))
	disabled.Enabled = false
	active := testSequence("new", domain.StatusNewLead, step("new-1", 1))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{disabled, active}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", got.Warnings)
	}
	if len(got.Entries) != 1 || got.Entries[0].SequenceID != "new" {
		t.Fatalf("expected entry from enabled sequence, got %+v", got.Entries)
	}
}

func TestForecastHorizonBounds(t *testing.T) {
	lead := testLead("Delta", domain.StatusInterested, daysAgo(0))
	seq := testSequence("s", domain.StatusInterested, step("d1", 1), step("d3", 3), step("d10", 10))
	planner := NewPlanner(PlannerOptions{})

	cases := []struct {
		horizon int
		want    []string
	}{
		{horizon: 0, want: nil},
		{horizon: 1, want: []string{"d1"}},
		{horizon: 3, want: []string{"d1", "d3"}},
		{horizon: 10, want: []string{"d1", "d3", "d10"}},
	}

	for _, tc := range cases {
		got, err := planner.Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, tc.horizon)
		if err != nil {
			t.Fatalf("horizon %d: unexpected error: %v", tc.horizon, err)
		}
		if len(got.Entries) != len(tc.want) {
			t.Fatalf("horizon %d: expected %v, got %+v", tc.horizon, tc.want, got.Entries)
		}
		for i, id := range tc.want {
			if got.Entries[i].StepID != id {
				t.Fatalf("horizon %d: entry %d expected %s, got %s", tc.horizon, i, id, got.Entries[i].StepID)
			}
		}
	}
}

func TestForecastRejectsNegativeHorizon(t *testing.T) {
	_, err := NewPlanner(PlannerOptions{}).Forecast(nil, nil, testNow, -1)
	if err == nil {
		t.Fatal("expected error for negative horizon")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestForecastEmptyInputs(t *testing.T) {
	got, err := NewPlanner(PlannerOptions{}).Forecast(nil, nil, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Entries == nil || len(got.Entries) != 0 {
		t.Fatalf("expected non-nil empty entries, got %#v", got.Entries)
	}
}

func TestForecastSkipsElapsedStepsAndSortsUnorderedSteps(t *testing.T) {
	lead := testLead("Epsilon", domain.StatusNegotiation, daysAgo(3))
	seq := testSequence("close", domain.StatusNegotiation, step("d6", 6), step("d2", 2), step("d4", 4), step("d3", 3))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got.Entries)
	}
	if got.Entries[0].StepID != "d4" || got.Entries[1].StepID != "d6" {
		t.Fatalf("expected d4 then d6, got %s then %s", got.Entries[0].StepID, got.Entries[1].StepID)
	}
	if got.Entries[0].SendDate != civil.DateOf(testNow).AddDays(1) {
		t.Fatalf("unexpected date for d4: %s", got.Entries[0].SendDate)
	}
}

func TestForecastTiesKeepLeadThenStepOrder(t *testing.T) {
	first := testLead("First", domain.StatusInterested, daysAgo(0))
	second := testLead("Second", domain.StatusInterested, daysAgo(0))
	seq := testSequence("s", domain.StatusInterested, step("x", 2), step("y", 2))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{first, second}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		lead string
		step string
	}{{"First", "x"}, {"First", "y"}, {"Second", "x"}, {"Second", "y"}}
	if len(got.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got.Entries))
	}
	for i, w := range want {
		if got.Entries[i].LeadName != w.lead || got.Entries[i].StepID != w.step {
			t.Fatalf("entry %d: expected %s/%s, got %s/%s", i, w.lead, w.step, got.Entries[i].LeadName, got.Entries[i].StepID)
		}
	}
}

func TestForecastMissingStatusChangePolicy(t *testing.T) {
	lead := testLead("Zeta", domain.StatusInterested, nil)
	seq := testSequence("s", domain.StatusInterested, step("d2", 2))

	asNow, err := NewPlanner(PlannerOptions{MissingStatusChange: StatusChangeAsNow}).
		Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asNow.Entries) != 1 || asNow.Entries[0].SendDate != civil.DateOf(testNow).AddDays(2) {
		t.Fatalf("expected entry two days out, got %+v", asNow.Entries)
	}

	skipped, err := NewPlanner(PlannerOptions{MissingStatusChange: StatusChangeSkip}).
		Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped.Entries) != 0 {
		t.Fatalf("expected no entries with skip policy, got %+v", skipped.Entries)
	}
}

func TestForecastFutureStatusChangeIsClamped(t *testing.T) {
	future := testNow.Add(36 * time.Hour)
	lead := testLead("Eta", domain.StatusInterested, &future)
	seq := testSequence("s", domain.StatusInterested, step("d1", 1))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].SendDate != civil.DateOf(testNow).AddDays(1) {
		t.Fatalf("expected clamped entry tomorrow, got %+v", got.Entries)
	}
}

func TestForecastIgnoresUnknownStatus(t *testing.T) {
	lead := testLead("Theta", domain.Status("on_hold"), daysAgo(0))
	seq := testSequence("s", domain.Status("on_hold"), step("d1", 1))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 0 {
		t.Fatalf("expected no entries, got %+v", got.Entries)
	}
}

func TestForecastUsesLocationForToday(t *testing.T) {
	// 23:30 UTC on May 20 is already May 21 in Amsterdam.
	now := time.Date(2026, 5, 20, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("CEST", 2*60*60)
	lead := testLead("Iota", domain.StatusInterested, &now)
	seq := testSequence("s", domain.StatusInterested, step("d1", 1))

	got, err := NewPlanner(PlannerOptions{Location: loc}).Forecast([]domain.Lead{lead}, []domain.DripSequence{seq}, now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := civil.Date{Year: 2026, Month: time.May, Day: 22}
	if len(got.Entries) != 1 || got.Entries[0].SendDate != want {
		t.Fatalf("expected entry on %s, got %+v", want, got.Entries)
	}
}

func TestForecastTemplateErrorIsWarningNotFailure(t *testing.T) {
	lead := testLead("Kappa", domain.StatusInterested, daysAgo(0))
	broken := domain.DripStep{ID: "broken", DayDelay: 1, Subject: "Hello", MessageTemplate: "Hi {{name"}
	seq := testSequence("s", domain.StatusInterested, broken)
	other := testLead("Lambda", domain.StatusInterested, daysAgo(0))

	got, err := NewPlanner(PlannerOptions{}).Forecast([]domain.Lead{lead, other}, []domain.DripSequence{seq}, testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got.Entries)
	}
	if got.Entries[0].Message != "Hi {{name" {
		t.Fatalf("expected raw template text, got %q", got.Entries[0].Message)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Kind != WarningTemplate || got.Warnings[0].StepID != "broken" {
		t.Fatalf("expected a single template warning, got %+v", got.Warnings)
	}
}

func TestParseMissingStatusChangePolicy(t *testing.T) {
	cases := map[string]MissingStatusChangePolicy{
		"":      StatusChangeAsNow,
		"now":   StatusChangeAsNow,
		" SKIP": StatusChangeSkip,
	}
	for raw, want := range cases {
		got, err := ParseMissingStatusChangePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("%q: expected %v, got %v (%v)", raw, want, got, err)
		}
	}
	if _, err := ParseMissingStatusChangePolicy("later"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
