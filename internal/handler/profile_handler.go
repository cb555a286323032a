package handler

import (
	"net/http"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
)

// ProfileHandler handles HTTP requests for user profiles and the security PIN.
type ProfileHandler struct {
	service *application.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service *application.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// RegisterRoutes registers all profile routes on the given router group.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	profile := r.Group("/api/v1/profile")
	profile.Use(authMW)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.POST("/pin", h.SetPin)
		profile.POST("/pin/verify", h.VerifyPin)
	}
}

// GetProfile handles GET /api/v1/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateProfile handles PUT /api/v1/profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetPin handles POST /api/v1/profile/pin.
func (h *ProfileHandler) SetPin(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.SetPin(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"pin_set": true})
}

// VerifyPin handles POST /api/v1/profile/pin/verify.
func (h *ProfileHandler) VerifyPin(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyPin(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"valid": true})
}
