package routes

import (
	"github.com/biblioteca/loans-service/src/controllers"
	"github.com/gin-gonic/gin"
)

func SetupHealthRoutes(router gin.IRouter, healthController *controllers.HealthController) {
	health := router.Group("/health")
	{
		health.GET("", healthController.Health)
		health.GET("/upstreams", healthController.Upstreams)
	}
}
