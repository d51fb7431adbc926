package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/internal/leads/scoring"
	"agency_crm_backend/internal/leads/transport"
	"agency_crm_backend/platform/apperr"
	"agency_crm_backend/platform/phone"
	"agency_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const defaultPageSize = 50

// Store is the persistence the service needs.
type Store interface {
	ListAll(ctx context.Context) ([]domain.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Lead, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status domain.Status, at time.Time) (domain.Status, domain.Lead, error)
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) (domain.Lead, error)
}

type Service struct {
	repo     Store
	eventBus events.Bus
	phones   *phone.Normalizer
	now      func() time.Time
}

func New(repo Store, eventBus events.Bus, phones *phone.Normalizer) *Service {
	if phones == nil {
		phones = phone.NewNormalizer(phone.DefaultRegion)
	}
	return &Service{repo: repo, eventBus: eventBus, phones: phones, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ListAll returns the stored roster.
func (s *Service) ListAll(ctx context.Context) ([]domain.Lead, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}

	status := ""
	if req.Status != "" {
		parsed, _ := domain.ParseStatus(req.Status)
		status = parsed.String()
	}

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		Status: status,
		Tag:    strings.TrimSpace(req.Tag),
		Search: strings.TrimSpace(req.Search),
		Limit:  req.PageSize,
		Offset: (req.Page - 1) * req.PageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	scored := scoring.ScoreAll(leads, s.now())
	items := make([]transport.LeadResponse, len(scored))
	for i, sc := range scored {
		items[i] = transport.ToLeadResponse(sc.Lead, sc.Temperature)
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}
	return transport.ToLeadResponse(lead, scoring.Score(lead, s.now())), nil
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if err := validateDealValue(req.DealValue == nil || !req.DealValue.IsNegative()); err != nil {
		return transport.LeadResponse{}, err
	}

	name := sanitize.Line(req.Name)
	if name == "" {
		return transport.LeadResponse{}, apperr.Validation("name must not be empty")
	}

	status := domain.StatusNewLead
	if req.Status != "" {
		status, _ = domain.ParseStatus(req.Status)
	}

	now := s.now()
	lead, err := s.repo.Create(ctx, domain.Lead{
		Name:            name,
		Status:          status,
		LastActiveAt:    now,
		StatusChangedAt: &now,
		DealValue:       req.DealValue,
		Tags:            normalizeTags(req.Tags),
		IsHighQuality:   req.IsHighQuality,
		Phone:           s.phones.NormalizeE164(req.Phone),
		Email:           normalizeEmail(req.Email),
		Website:         strings.TrimSpace(req.Website),
		SocialLink:      strings.TrimSpace(req.SocialLink),
		Source:          sanitize.Line(req.Source),
		Notes:           sanitize.Text(req.Notes),
		Industry:        sanitize.Line(req.Industry),
		ServiceType:     sanitize.Line(req.ServiceType),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publish(ctx, events.LeadUpserted{BaseEvent: events.NewBaseEvent(now), LeadID: lead.ID, Created: true})
	return transport.ToLeadResponse(lead, scoring.Score(lead, now)), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	if req.Name != nil {
		lead.Name = sanitize.Line(*req.Name)
		if lead.Name == "" {
			return transport.LeadResponse{}, apperr.Validation("name must not be empty")
		}
	}
	if req.DealValue.Set {
		if err := validateDealValue(req.DealValue.Value == nil || !req.DealValue.Value.IsNegative()); err != nil {
			return transport.LeadResponse{}, err
		}
		lead.DealValue = req.DealValue.Value
	}
	if req.Tags != nil {
		lead.Tags = normalizeTags(*req.Tags)
	}
	if req.IsHighQuality != nil {
		lead.IsHighQuality = *req.IsHighQuality
	}
	if req.Phone != nil {
		lead.Phone = s.phones.NormalizeE164(*req.Phone)
	}
	if req.Email != nil {
		lead.Email = normalizeEmail(*req.Email)
	}
	applyString(&lead.Website, req.Website, strings.TrimSpace)
	applyString(&lead.SocialLink, req.SocialLink, strings.TrimSpace)
	applyString(&lead.Source, req.Source, sanitize.Line)
	applyString(&lead.Industry, req.Industry, sanitize.Line)
	applyString(&lead.ServiceType, req.ServiceType, sanitize.Line)
	if req.Notes != nil {
		lead.Notes = sanitize.Text(*req.Notes)
	}

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	now := s.now()
	s.publish(ctx, events.LeadUpserted{BaseEvent: events.NewBaseEvent(now), LeadID: updated.ID})
	return transport.ToLeadResponse(updated, scoring.Score(updated, now)), nil
}

// ChangeStatus moves the lead through the pipeline. Drip sequences for the
// new status count from this moment.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, req transport.UpdateLeadStatusRequest) (transport.LeadResponse, error) {
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return transport.LeadResponse{}, apperr.Validationf("unknown status %q", req.Status)
	}

	now := s.now()
	oldStatus, lead, err := s.repo.ChangeStatus(ctx, id, status, now)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	if oldStatus != status {
		s.publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(now),
			LeadID:    lead.ID,
			OldStatus: oldStatus.String(),
			NewStatus: status.String(),
		})
	}
	return transport.ToLeadResponse(lead, scoring.Score(lead, now)), nil
}

// RecordActivity marks an interaction with the lead. Future instants are
// clamped to now.
func (s *Service) RecordActivity(ctx context.Context, id uuid.UUID, req transport.RecordActivityRequest) (transport.LeadResponse, error) {
	now := s.now()
	at := now
	if req.At != nil && req.At.Before(now) {
		at = *req.At
	}

	lead, err := s.repo.TouchActivity(ctx, id, at)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	s.publish(ctx, events.LeadUpserted{BaseEvent: events.NewBaseEvent(now), LeadID: lead.ID})
	return transport.ToLeadResponse(lead, scoring.Score(lead, now)), nil
}

// Score labels caller-supplied snapshots without touching storage.
func (s *Service) Score(_ context.Context, req transport.ScoreLeadsRequest) transport.ScoreLeadsResponse {
	now := s.now()
	if req.Now != nil {
		now = *req.Now
	}

	items := make([]transport.ScoredLeadResponse, len(req.Leads))
	for i, snap := range req.Leads {
		lead := snap.ToDomain()
		items[i] = transport.ScoredLeadResponse{
			ID:          lead.ID,
			Name:        lead.Name,
			Temperature: string(scoring.Score(lead, now)),
		}
	}
	return transport.ScoreLeadsResponse{EvaluatedAt: now, Items: items}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

func validateDealValue(ok bool) error {
	if ok {
		return nil
	}
	return apperr.Validation("dealValue must not be negative")
}

func applyString(dst *string, value *string, clean func(string) string) {
	if value != nil {
		*dst = clean(*value)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeTags trims tags and drops empty and case-insensitive duplicates,
// keeping first occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
