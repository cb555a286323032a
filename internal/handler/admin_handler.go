package handler

import (
	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles admin HTTP requests for fleet and route management.
type AdminHandler struct {
	service *application.FleetService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.FleetService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin fleet routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.POST("/buses", h.RegisterBus)
		admin.GET("/buses", h.ListBuses)
		admin.GET("/buses/:id", h.GetBus)
		admin.PUT("/buses/:id/assignment", h.AssignBus)
		admin.PUT("/buses/:id/status", h.SetBusStatus)
		admin.POST("/routes", h.CreateRoute)
	}
}

// RegisterBus handles POST /api/v1/admin/buses.
func (h *AdminHandler) RegisterBus(c *gin.Context) {
	var req application.RegisterBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.RegisterBus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// ListBuses handles GET /api/v1/admin/buses.
func (h *AdminHandler) ListBuses(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListBuses(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, page, limit)
}

// GetBus handles GET /api/v1/admin/buses/:id.
func (h *AdminHandler) GetBus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	dto, err := h.service.GetBus(c.Request.Context(), busID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// AssignBus handles PUT /api/v1/admin/buses/:id/assignment.
func (h *AdminHandler) AssignBus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	var req application.AssignBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.AssignBus(c.Request.Context(), busID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// SetBusStatus handles PUT /api/v1/admin/buses/:id/status.
func (h *AdminHandler) SetBusStatus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	var req application.SetBusStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.SetBusStatus(c.Request.Context(), busID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// CreateRoute handles POST /api/v1/admin/routes.
func (h *AdminHandler) CreateRoute(c *gin.Context) {
	var req application.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreateRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}
