package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"
	"agency_crm_backend/platform/logger"
	"agency_crm_backend/platform/validator"

	"cloud.google.com/go/civil"
)

// LeadReader loads the stored roster.
type LeadReader interface {
	ListAll(ctx context.Context) ([]domain.Lead, error)
}

// ServiceDeps wires a Service.
type ServiceDeps struct {
	Leads              LeadReader
	Sequences          SequenceSource
	Planner            *Planner
	Cache              *ForecastCache
	Validator          *validator.Validator
	Log                *logger.Logger
	DefaultHorizonDays int
	Now                func() time.Time
}

// Service runs the planner against stored or supplied data.
type Service struct {
	leads          LeadReader
	sequences      SequenceSource
	planner        *Planner
	cache          *ForecastCache
	val            *validator.Validator
	log            *logger.Logger
	defaultHorizon int
	now            func() time.Time
}

// NewService creates a Service.
func NewService(deps ServiceDeps) *Service {
	planner := deps.Planner
	if planner == nil {
		planner = NewPlanner(PlannerOptions{})
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		leads:          deps.Leads,
		sequences:      deps.Sequences,
		planner:        planner,
		cache:          deps.Cache,
		val:            deps.Validator,
		log:            deps.Log,
		defaultHorizon: deps.DefaultHorizonDays,
		now:            now,
	}
}

// Sequences returns the configured sequences.
func (s *Service) Sequences(ctx context.Context) ([]domain.DripSequence, error) {
	seqs, err := s.sequences.Sequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sequences: %w", err)
	}
	return seqs, nil
}

// Plan forecasts the stored roster at now. Warnings are logged and returned.
func (s *Service) Plan(ctx context.Context, now time.Time, horizonDays int) (Forecast, error) {
	seqs, err := s.Sequences(ctx)
	if err != nil {
		return Forecast{}, err
	}
	return s.planRoster(ctx, seqs, now, horizonDays)
}

func (s *Service) planRoster(ctx context.Context, seqs []domain.DripSequence, now time.Time, horizonDays int) (Forecast, error) {
	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return Forecast{}, fmt.Errorf("load roster: %w", err)
	}

	forecast, err := s.planner.Forecast(leads, seqs, now, horizonDays)
	if err != nil {
		return Forecast{}, err
	}
	s.logWarnings(ctx, forecast.Warnings)
	return forecast, nil
}

// RosterForecast returns the forecast over the stored roster, served from the
// cache when possible. A nil horizon uses the configured default.
func (s *Service) RosterForecast(ctx context.Context, horizonDays *int) (ForecastResponse, error) {
	horizon := s.defaultHorizon
	if horizonDays != nil {
		horizon = *horizonDays
	}
	if horizon < 0 {
		return ForecastResponse{}, apperr.Validationf("horizonDays must be >= 0, got %d", horizon).WithOp("automation.RosterForecast")
	}

	now := s.now()
	today := civil.DateOf(now.In(s.planner.Location()))
	seqs, err := s.Sequences(ctx)
	if err != nil {
		return ForecastResponse{}, err
	}
	key, err := NewForecastKey(now, s.planner.Location(), horizon, seqs)
	if err != nil {
		return ForecastResponse{}, err
	}

	if cached, ok := s.cachedForecast(ctx, key); ok {
		return cached, nil
	}

	forecast, err := s.planRoster(ctx, seqs, now, horizon)
	if err != nil {
		return ForecastResponse{}, err
	}
	resp := toForecastResponse(today, horizon, forecast)
	s.storeForecast(ctx, key, resp)
	return resp, nil
}

// SnapshotForecast plans over caller-supplied leads and sequences.
func (s *Service) SnapshotForecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error) {
	if s.val != nil {
		if err := s.val.Struct(req); err != nil {
			return ForecastResponse{}, apperr.Validation("invalid forecast request").WithDetails(validator.Describe(err))
		}
		if err := ValidateSpecs(s.val, req.Sequences); err != nil {
			return ForecastResponse{}, err
		}
	}

	now := s.now()
	if req.Now != nil {
		now = *req.Now
	}
	horizon := s.defaultHorizon
	if req.HorizonDays != nil {
		horizon = *req.HorizonDays
	}

	leads := make([]domain.Lead, len(req.Leads))
	for i, snap := range req.Leads {
		leads[i] = snap.ToDomain()
	}
	seqs := make([]domain.DripSequence, len(req.Sequences))
	for i, spec := range req.Sequences {
		seqs[i] = spec.ToDomain()
	}

	forecast, err := s.planner.Forecast(leads, seqs, now, horizon)
	if err != nil {
		return ForecastResponse{}, err
	}
	s.logWarnings(ctx, forecast.Warnings)
	return toForecastResponse(civil.DateOf(now.In(s.planner.Location())), horizon, forecast), nil
}

// RegisterHandlers drops cached forecasts whenever roster data changes.
func (s *Service) RegisterHandlers(bus events.Bus) {
	invalidate := events.HandlerFunc(func(ctx context.Context, _ events.Event) error {
		return s.cache.Invalidate(ctx)
	})
	events.SubscribeAll(bus, invalidate, events.LeadUpserted{}, events.LeadStatusChanged{})
}

func (s *Service) cachedForecast(ctx context.Context, key ForecastKey) (ForecastResponse, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger(ctx).Warn("forecast cache read failed", slog.String("error", err.Error()))
		return ForecastResponse{}, false
	}
	if !ok {
		return ForecastResponse{}, false
	}
	var resp ForecastResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger(ctx).Warn("forecast cache entry unreadable", slog.String("error", err.Error()))
		return ForecastResponse{}, false
	}
	return resp, true
}

func (s *Service) storeForecast(ctx context.Context, key ForecastKey, resp ForecastResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger(ctx).Warn("forecast cache write failed", slog.String("error", err.Error()))
	}
}

func (s *Service) logWarnings(ctx context.Context, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}
	log := s.logger(ctx)
	for _, w := range warnings {
		log.ForecastWarning(string(w.Kind), w.Status.String(), w.Message, w.SequenceIDs)
	}
}

func (s *Service) logger(ctx context.Context) *logger.Logger {
	if s.log == nil {
		return logger.NewWithWriter("production", io.Discard)
	}
	return s.log.WithContext(ctx)
}
