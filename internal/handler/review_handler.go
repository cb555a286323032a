package handler

import (
	"net/http"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReviewHandler handles HTTP requests for bus and route reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes on the given router group.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reviews := r.Group("/api/v1/reviews")
	reviews.Use(authMW)
	{
		reviews.POST("", middleware.RequireRole(auth.RoleCustomer), h.CreateReview)
		reviews.GET("/me", h.ListMyReviews)
		reviews.DELETE("/:id", h.DeleteReview)
	}

	buses := r.Group("/api/v1/buses")
	buses.Use(authMW)
	{
		buses.GET("/:id/reviews", h.ListBusReviews)
	}
}

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListMyReviews handles GET /api/v1/reviews/me.
func (h *ReviewHandler) ListMyReviews(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListMyReviews(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListBusReviews handles GET /api/v1/buses/:id/reviews.
func (h *ReviewHandler) ListBusReviews(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	result, err := h.service.ListBusReviews(c.Request.Context(), busID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteReview handles DELETE /api/v1/reviews/:id.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review ID")
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), userID, reviewID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
