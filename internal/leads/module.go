// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"agency_crm_backend/internal/events"
	apphttp "agency_crm_backend/internal/http"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/internal/leads/handler"
	"agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/internal/leads/service"
	"agency_crm_backend/platform/phone"
	"agency_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, phones *phone.Normalizer) (*Module, error) {
	if err := domain.RegisterValidations(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, eventBus, phones)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service.
func (m *Module) Service() *service.Service { return m.service }

// Repository returns the shared leads repository for roster reads and
// drip dispatch bookkeeping.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
