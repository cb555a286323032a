package handler

import (
	"net/http"
	"strconv"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TicketHandler handles HTTP requests for purchases, tickets and boarding.
type TicketHandler struct {
	service *application.TicketService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(service *application.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// RegisterRoutes registers all ticketing routes on the given router group.
func (h *TicketHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	tickets := r.Group("/api/v1/tickets")
	tickets.Use(authMW)
	{
		tickets.POST("/purchase", middleware.RequireRole(auth.RoleCustomer), h.PurchaseTicket)
		tickets.GET("", h.ListTickets)
		tickets.POST("/:id/use", middleware.RequireRole(auth.RoleDriver), h.UseTicket)
	}

	transactions := r.Group("/api/v1/transactions")
	transactions.Use(authMW)
	{
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
	}
}

// PurchaseTicket handles POST /api/v1/tickets/purchase.
func (h *TicketHandler) PurchaseTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.PurchaseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PurchaseTicket(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListTickets handles GET /api/v1/tickets.
func (h *TicketHandler) ListTickets(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListTickets(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UseTicket handles POST /api/v1/tickets/:id/use.
func (h *TicketHandler) UseTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket ID")
		return
	}

	var body struct {
		BusID uuid.UUID `json:"bus_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UseTicket(c.Request.Context(), ticketID, body.BusID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *TicketHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *TicketHandler) GetTransaction(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction ID")
		return
	}

	result, err := h.service.GetTransaction(c.Request.Context(), userID, transactionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
