package handler

import (
	"net/http"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
)

// TrackingHandler handles HTTP requests for driver location broadcasting.
type TrackingHandler struct {
	service *application.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(service *application.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RegisterRoutes registers all tracking routes on the given router group.
func (h *TrackingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	tracking := r.Group("/api/v1/tracking")
	tracking.Use(authMW, middleware.RequireRole(auth.RoleDriver))
	{
		tracking.POST("/start", h.StartTracking)
		tracking.POST("/location", h.ReportLocation)
		tracking.POST("/stop", h.StopTracking)
		tracking.GET("/status", h.Status)
	}
}

// StartTracking handles POST /api/v1/tracking/start.
func (h *TrackingHandler) StartTracking(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.StartTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartTracking(c.Request.Context(), driverID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReportLocation handles POST /api/v1/tracking/location.
func (h *TrackingHandler) ReportLocation(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ReportLocation(c.Request.Context(), driverID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"reported": true})
}

// StopTracking handles POST /api/v1/tracking/stop.
func (h *TrackingHandler) StopTracking(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.StopTracking(c.Request.Context(), driverID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"stopped": true})
}

// Status handles GET /api/v1/tracking/status.
func (h *TrackingHandler) Status(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	response.Success(c, h.service.Status(driverID))
}
