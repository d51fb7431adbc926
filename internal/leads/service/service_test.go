package service

import (
	"context"
	"testing"
	"time"

	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/internal/leads/transport"
	"agency_crm_backend/platform/apperr"
	"agency_crm_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

type memoryStore struct {
	leads map[uuid.UUID]domain.Lead
	order []uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{leads: make(map[uuid.UUID]domain.Lead)}
}

func (m *memoryStore) ListAll(context.Context) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.leads[id])
	}
	return out, nil
}

func (m *memoryStore) List(ctx context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	all, _ := m.ListAll(ctx)
	matched := make([]domain.Lead, 0, len(all))
	for _, lead := range all {
		if params.Status != "" && lead.Status.String() != params.Status {
			continue
		}
		if params.Tag != "" && !lead.HasTag(params.Tag) {
			continue
		}
		matched = append(matched, lead)
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	if params.Offset > len(matched) {
		return []domain.Lead{}, len(matched), nil
	}
	return matched[params.Offset:end], len(matched), nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *memoryStore) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.ID = uuid.New()
	m.leads[lead.ID] = lead
	m.order = append(m.order, lead.ID)
	return lead, nil
}

func (m *memoryStore) Update(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	if _, ok := m.leads[lead.ID]; !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memoryStore) ChangeStatus(_ context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Status, domain.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return "", domain.Lead{}, repository.ErrNotFound
	}
	old := lead.Status
	if old != status {
		lead.Status = status
		lead.StatusChangedAt = &at
	}
	m.leads[id] = lead
	return old, lead, nil
}

func (m *memoryStore) TouchActivity(_ context.Context, id uuid.UUID, at time.Time) (domain.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if at.After(lead.LastActiveAt) {
		lead.LastActiveAt = at
	}
	m.leads[id] = lead
	return lead, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *memoryStore, *recordingBus) {
	store := newMemoryStore()
	bus := &recordingBus{}
	svc := New(store, bus, phone.NewNormalizer("NL"))
	svc.SetClock(func() time.Time { return testNow })
	return svc, store, bus
}

func TestCreateNormalizesAndPublishes(t *testing.T) {
	svc, store, bus := newTestService()
	deal := decimal.NewFromInt(1200)

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:      "  Acme Bakery ",
		DealValue: &deal,
		Tags:      []string{"vip", " VIP", "", "retail"},
		Phone:     "06 12345678",
		Email:     " Owner@Acme.Test ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Name != "Acme Bakery" || resp.Status != "new_lead" {
		t.Fatalf("unexpected lead: %+v", resp)
	}
	if resp.Phone != "+31612345678" || resp.Email != "owner@acme.test" {
		t.Fatalf("contact fields not normalized: %q %q", resp.Phone, resp.Email)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "vip" || resp.Tags[1] != "retail" {
		t.Fatalf("unexpected tags: %v", resp.Tags)
	}
	if resp.Temperature != string(domain.TemperatureHot) {
		t.Fatalf("expected Hot for a fresh 1200 deal, got %s", resp.Temperature)
	}
	stored := store.leads[resp.ID]
	if stored.StatusChangedAt == nil || !stored.StatusChangedAt.Equal(testNow) {
		t.Fatalf("expected status change stamped at creation, got %v", stored.StatusChangedAt)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if e, ok := bus.published[0].(events.LeadUpserted); !ok || !e.Created || e.LeadID != resp.ID {
		t.Fatalf("unexpected event: %#v", bus.published[0])
	}
}

func TestCreateRejectsNegativeDeal(t *testing.T) {
	svc, _, _ := newTestService()
	deal := decimal.NewFromInt(-1)

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{Name: "X", DealValue: &deal})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangeStatusPublishesOnlyOnRealChange(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Beta"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bus.published = nil

	resp, err := svc.ChangeStatus(ctx, created.ID, transport.UpdateLeadStatusRequest{Status: "Interested"})
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if resp.Status != "interested" {
		t.Fatalf("expected interested, got %s", resp.Status)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	e, ok := bus.published[0].(events.LeadStatusChanged)
	if !ok || e.OldStatus != "new_lead" || e.NewStatus != "interested" {
		t.Fatalf("unexpected event: %#v", bus.published[0])
	}
	if !e.OccurredAt().Equal(testNow) {
		t.Fatalf("expected event stamped with the service clock, got %v", e.OccurredAt())
	}

	if _, err := svc.ChangeStatus(ctx, created.ID, transport.UpdateLeadStatusRequest{Status: "interested"}); err != nil {
		t.Fatalf("repeat status: %v", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("repeating the same status must not publish, got %d events", len(bus.published))
	}
}

func TestChangeStatusUnknownLead(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ChangeStatus(context.Background(), uuid.New(), transport.UpdateLeadStatusRequest{Status: "cold"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateClearsDealValueWithExplicitNull(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	deal := decimal.NewFromInt(300)
	created, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Gamma", DealValue: &deal})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var req transport.UpdateLeadRequest
	if err := req.DealValue.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	notes := "Called twice, no answer"
	req.Notes = &notes

	resp, err := svc.Update(ctx, created.ID, req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.DealValue != nil {
		t.Fatalf("expected cleared deal value, got %v", resp.DealValue)
	}
	if resp.Notes != notes || resp.Name != "Gamma" {
		t.Fatalf("unexpected lead after update: %+v", resp)
	}
}

func TestRecordActivityClampsFuture(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Delta"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	lead := store.leads[created.ID]
	lead.LastActiveAt = testNow.Add(-10 * 24 * time.Hour)
	store.leads[created.ID] = lead

	future := testNow.Add(48 * time.Hour)
	resp, err := svc.RecordActivity(ctx, created.ID, transport.RecordActivityRequest{At: &future})
	if err != nil {
		t.Fatalf("record activity: %v", err)
	}
	if !resp.LastActiveAt.Equal(testNow) {
		t.Fatalf("expected activity clamped to now, got %v", resp.LastActiveAt)
	}
	if resp.Temperature != string(domain.TemperatureWarm) {
		t.Fatalf("expected Warm after fresh activity, got %s", resp.Temperature)
	}
}

func TestScoreSnapshots(t *testing.T) {
	svc, _, _ := newTestService()
	deal := decimal.NewFromInt(1200)

	resp := svc.Score(context.Background(), transport.ScoreLeadsRequest{Leads: []transport.LeadSnapshot{
		{Name: "Hot", Status: "interested", DealValue: &deal, LastActiveAt: testNow.Add(-24 * time.Hour)},
		{Name: "Cold", Status: "negotiation", LastActiveAt: testNow.Add(-9 * 24 * time.Hour)},
		{Name: "Odd", Status: "on_hold", LastActiveAt: testNow},
	}})

	want := []domain.Temperature{domain.TemperatureHot, domain.TemperatureCold, domain.TemperatureNeutral}
	if len(resp.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(resp.Items))
	}
	for i, w := range want {
		if resp.Items[i].Temperature != string(w) {
			t.Fatalf("item %d: expected %s, got %s", i, w, resp.Items[i].Temperature)
		}
	}
	if !resp.EvaluatedAt.Equal(testNow) {
		t.Fatalf("expected evaluation at clock time, got %v", resp.EvaluatedAt)
	}
}

func TestListPaginates(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: name}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	resp, err := svc.List(ctx, transport.ListLeadsRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 3 || resp.TotalPages != 2 || len(resp.Items) != 1 {
		t.Fatalf("unexpected page: %+v", resp)
	}
}

func TestListScoresEveryItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	deal := decimal.NewFromInt(900)
	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Big", DealValue: &deal, Status: "negotiation"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Fresh"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.List(ctx, transport.ListLeadsRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Name != "Big" || resp.Items[0].Temperature != string(domain.TemperatureHot) {
		t.Fatalf("unexpected first item %+v", resp.Items[0])
	}
	if resp.Items[1].Name != "Fresh" || resp.Items[1].Temperature != string(domain.TemperatureWarm) {
		t.Fatalf("unexpected second item %+v", resp.Items[1])
	}

	svc.SetClock(func() time.Time { return testNow.Add(9 * 24 * time.Hour) })
	resp, err = svc.List(ctx, transport.ListLeadsRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range resp.Items {
		if item.Temperature != string(domain.TemperatureCold) {
			t.Fatalf("expected %s to cool down, got %s", item.Name, item.Temperature)
		}
	}
}

func TestCreateSanitizesText(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "<b>Acme</b>   Bakery",
		Notes: "Call back.\r\n<script>x</script>Friday",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Name != "Acme Bakery" {
		t.Fatalf("unexpected name %q", resp.Name)
	}
	if resp.Notes != "Call back.\nFriday" {
		t.Fatalf("unexpected notes %q", resp.Notes)
	}

	_, err = svc.Create(context.Background(), transport.CreateLeadRequest{Name: "<i></i>"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for a name that sanitizes to empty, got %v", err)
	}
}
