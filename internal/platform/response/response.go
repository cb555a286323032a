package response

import (
	"net/http"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform JSON body for all API responses.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type paginationMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with items and pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta:    paginationMeta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, envelope{Success: false, Error: message})
}

// Error maps a domain error to the appropriate HTTP status code.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch shared.KindOf(err) {
	case shared.KindValidation:
		status = http.StatusBadRequest
	case shared.KindNotFound:
		status = http.StatusNotFound
	case shared.KindConflict:
		status = http.StatusConflict
	case shared.KindForbidden:
		status = http.StatusForbidden
	case shared.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case shared.KindUnavailable:
		status = http.StatusBadGateway
	}
	c.JSON(status, envelope{Success: false, Error: err.Error()})
}
