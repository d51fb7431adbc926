package exports

import (
	apphttp "agency_crm_backend/internal/http"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the exports module.
func NewModule(svc *Service) *Module {
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Service returns the export service for the scheduler and CLI.
func (m *Module) Service() *Service { return m.service }

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/exports")
	group.GET("/leads.csv", m.handler.ExportLeadsCSV)
	group.GET("/archives", m.handler.ListArchives)
	group.POST("/archives", m.handler.CreateArchive)
	group.GET("/archives/download", m.handler.ArchiveDownloadURL)
}

var _ apphttp.Module = (*Module)(nil)
