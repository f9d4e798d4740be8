// api/handlers/shipment_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/logistics/services/tracking/internal/repository"
	"example.com/logistics/services/tracking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ShipmentHandler handles shipment retrieval requests
type ShipmentHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewShipmentHandler creates a new ShipmentHandler instance
func NewShipmentHandler(svc service.Service, log *logrus.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		service: svc,
		log:     log,
	}
}

// GetShipment returns one shipment with its scan history
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	waybillNo := c.Param("waybillNo")

	shipment, err := h.service.GetShipmentByWaybill(c.Request.Context(), waybillNo)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Shipment not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get shipment")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get shipment",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    shipment,
	})
}

// ListShipments returns a filtered, paginated shipment listing
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	filter := repository.ShipmentFilter{
		Page:      page,
		Limit:     limit,
		WaybillNo: c.Query("waybill_no"),
		RefNo:     c.Query("ref_no"),
	}

	shipments, total, err := h.service.ListShipments(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list shipments")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list shipments",
		})
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	pages := total / int64(filter.Limit)
	if total%int64(filter.Limit) != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    shipments,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pages,
		},
	})
}
