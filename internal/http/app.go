// Package http holds the composition types shared by cmd/api and the router.
package http

import (
	"context"

	"agency_crm_backend/platform/config"
	"agency_crm_backend/platform/logger"
)

type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// ReadinessCheck pings one backing service. The health endpoint reports
// every check by name and answers 503 when a required one fails. Optional
// services, such as the forecast cache, only degrade the status.
type ReadinessCheck struct {
	Name     string
	Ping     func(ctx context.Context) error
	Optional bool
}

// Readiness is the outcome of App.Ready. Ready is false when a required
// check failed.
type Readiness struct {
	Failures map[string]error
	Checked  []string
	Ready    bool
}

// Status is "ok", "degraded" or "unavailable".
func (r Readiness) Status() string {
	switch {
	case !r.Ready:
		return "unavailable"
	case len(r.Failures) > 0:
		return "degraded"
	default:
		return "ok"
	}
}

// App is assembled by cmd/api and handed to router.New.
type App struct {
	Config    RouterConfig
	Logger    *logger.Logger
	Readiness []ReadinessCheck
	Modules   []Module
}

// Ready runs every check in order.
func (a *App) Ready(ctx context.Context) Readiness {
	result := Readiness{Failures: make(map[string]error), Ready: true}
	for _, check := range a.Readiness {
		result.Checked = append(result.Checked, check.Name)
		if err := check.Ping(ctx); err != nil {
			result.Failures[check.Name] = err
			if !check.Optional {
				result.Ready = false
			}
		}
	}
	return result
}
