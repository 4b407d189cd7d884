package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biblioteca/loans-service/src/controllers"
	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/biblioteca/loans-service/src/routes"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func newHealthRouter(users error) *gin.Engine {
	connectivity := services.NewConnectivityService().
		Register("books", pinger(func(context.Context) error { return nil })).
		Register("users", pinger(func(context.Context) error { return users }))

	router := gin.New()
	routes.SetupHealthRoutes(router, controllers.NewHealthController(connectivity, time.Second))
	return router
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func Test_Health_IsAlwaysUp(t *testing.T) {
	rec := serve(newHealthRouter(errors.New("down")), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[dtos.HealthDTO](t, rec)
	assert.Equal(t, "UP", body.Status)
	assert.Equal(t, "loans-service", body.Service)
	assert.Empty(t, body.Upstreams)
}

func Test_HealthUpstreams_AllReachable(t *testing.T) {
	rec := serve(newHealthRouter(nil), "/health/upstreams")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[dtos.HealthDTO](t, rec)
	require.Len(t, body.Upstreams, 2)
	assert.Equal(t, "UP", body.Upstreams[1].Status)
}

func Test_HealthUpstreams_OneDown_Returns503(t *testing.T) {
	rec := serve(newHealthRouter(errors.New("connection refused")), "/health/upstreams")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[dtos.HealthDTO](t, rec)
	assert.Equal(t, "DEGRADED", body.Status)
	assert.Equal(t, "DOWN", body.Upstreams[1].Status)
	assert.Equal(t, "connection refused", body.Upstreams[1].Error)
}
