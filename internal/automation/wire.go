package automation

import (
	"agency_crm_backend/platform/config"
	"agency_crm_backend/platform/logger"
	"agency_crm_backend/platform/validator"
)

// NewConfiguredService builds a Service from environment configuration with
// sequences read from the configured YAML file. cache may be nil.
func NewConfiguredService(cfg config.AutomationConfig, leads LeadReader, cache *ForecastCache, val *validator.Validator, log *logger.Logger) (*Service, error) {
	policy, err := ParseMissingStatusChangePolicy(cfg.GetMissingStatusChangePolicy())
	if err != nil {
		return nil, err
	}
	sequences, err := NewFileSequenceSource(cfg.GetSequencesFile(), val)
	if err != nil {
		return nil, err
	}

	return NewService(ServiceDeps{
		Leads:     leads,
		Sequences: sequences,
		Planner: NewPlanner(PlannerOptions{
			Location:            cfg.GetAutomationLocation(),
			MissingStatusChange: policy,
		}),
		Cache:              cache,
		Validator:          val,
		Log:                log,
		DefaultHorizonDays: cfg.GetDefaultHorizonDays(),
	}), nil
}
