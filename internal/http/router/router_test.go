package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "agency_crm_backend/internal/http"
	"agency_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerConfig struct{}

func (routerConfig) GetHTTPAddr() string        { return ":0" }
func (routerConfig) GetCORSAllowAll() bool      { return false }
func (routerConfig) GetCORSOrigins() []string   { return []string{"http://localhost:5173"} }
func (routerConfig) GetCORSAllowCreds() bool    { return true }
func (routerConfig) GetJWTAccessSecret() string { return "secret" }

func ping(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func getHealth(t *testing.T, checks ...apphttp.ReadinessCheck) (int, healthBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := New(&apphttp.App{
		Config:    routerConfig{},
		Logger:    logger.NewWithWriter("production", io.Discard),
		Readiness: checks,
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthReportsEveryCheck(t *testing.T) {
	code, body := getHealth(t,
		apphttp.ReadinessCheck{Name: "database", Ping: ping(nil)},
		apphttp.ReadinessCheck{Name: "forecastCache", Ping: ping(nil), Optional: true},
	)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "forecastCache": "ok"}, body.Checks)
}

func TestHealthDegradesOnOptionalFailure(t *testing.T) {
	code, body := getHealth(t,
		apphttp.ReadinessCheck{Name: "database", Ping: ping(nil)},
		apphttp.ReadinessCheck{Name: "forecastCache", Ping: ping(errors.New("connection refused")), Optional: true},
	)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Checks["forecastCache"])
}

func TestHealthFailsOnRequiredFailure(t *testing.T) {
	code, body := getHealth(t,
		apphttp.ReadinessCheck{Name: "database", Ping: ping(errors.New("timeout"))},
	)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "unavailable", body.Checks["database"])
}
