package routes

import (
	"time"

	"example.com/logistics/services/tracking/api/handlers"
	"example.com/logistics/services/tracking/api/middleware"
	"example.com/logistics/services/tracking/config"
	"example.com/logistics/services/tracking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, cfg *config.Config, svc service.Service, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	// Carrier routes, all behind header credential auth
	carrier := r.Group("/api/carrier")
	carrier.Use(middleware.CarrierAuth(cfg.Carrier, log))
	{
		webhookHandler := handlers.NewWebhookHandler(
			svc,
			time.Duration(cfg.Server.WebhookTimeoutSeconds)*time.Second,
			log,
		)
		carrier.POST("/status", webhookHandler.ReceiveStatus)

		shipmentHandler := handlers.NewShipmentHandler(svc, log)
		carrier.GET("/shipments", shipmentHandler.ListShipments)
		carrier.GET("/shipments/:waybillNo", shipmentHandler.GetShipment)
	}
}
