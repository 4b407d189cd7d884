package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/gin-gonic/gin"
)

const serviceName = "loans-service"

type HealthController struct {
	connectivity *services.ConnectivityService
	timeout      time.Duration
}

func NewHealthController(connectivity *services.ConnectivityService, timeout time.Duration) *HealthController {
	return &HealthController{connectivity: connectivity, timeout: timeout}
}

// Health answers as long as the process serves requests.
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dtos.HealthDTO{
		Status:    "UP",
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
	})
}

// Upstreams checks the Books and Users services. It answers 503 when any is down.
func (c *HealthController) Upstreams(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	statuses := c.connectivity.Check(checkCtx)

	body := dtos.HealthDTO{
		Status:    "UP",
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
		Upstreams: dtos.NewUpstreamStatusDTOs(statuses),
	}
	code := http.StatusOK
	if !services.AllUp(statuses) {
		body.Status = "DEGRADED"
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, body)
}
