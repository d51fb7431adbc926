package automation

import (
	"agency_crm_backend/internal/events"
	apphttp "agency_crm_backend/internal/http"
)

// Module is the automation bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the automation module and subscribes cache invalidation
// to lead events.
func NewModule(svc *Service, bus events.Bus) *Module {
	if bus != nil {
		svc.RegisterHandlers(bus)
	}
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Service returns the automation service for the scheduler.
func (m *Module) Service() *Service { return m.service }

// Name returns the module identifier.
func (m *Module) Name() string {
	return "automation"
}

// RegisterRoutes mounts automation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/automation")
	group.GET("/sequences", m.handler.ListSequences)
	group.GET("/forecast", m.handler.GetForecast)
	group.POST("/forecast", m.handler.PostForecast)
}

var _ apphttp.Module = (*Module)(nil)
