package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gerakkita/service-transit/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RouteHandler handles HTTP requests for route discovery and the live bus view.
type RouteHandler struct {
	service *application.RouteService
	refresh time.Duration
	logger  *zap.Logger
}

// NewRouteHandler creates a new RouteHandler. refresh is the cadence at which
// the live-view stream re-reads bus positions.
func NewRouteHandler(service *application.RouteService, refresh time.Duration, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{service: service, refresh: refresh, logger: logger}
}

// RegisterRoutes registers all route endpoints on the given router group.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	routes := r.Group("/api/v1/routes")
	routes.Use(authMW)
	{
		routes.GET("", h.ListRoutes)
		routes.GET("/search", h.SearchRoutes)
		routes.GET("/:id", h.GetRoute)
		routes.GET("/:id/buses", h.RouteBuses)
		routes.GET("/:id/live", h.LiveRouteBuses)
	}

	stops := r.Group("/api/v1/stops")
	stops.Use(authMW)
	{
		stops.GET("", h.ListStops)
	}
}

// ListRoutes handles GET /api/v1/routes.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	result, err := h.service.ListActiveRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SearchRoutes handles GET /api/v1/routes/search?q=.
func (h *RouteHandler) SearchRoutes(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.BadRequest(c, "query parameter q is required")
		return
	}

	result, err := h.service.SearchRoutes(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRoute handles GET /api/v1/routes/:id.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	result, err := h.service.GetRouteDetail(c.Request.Context(), routeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RouteBuses handles GET /api/v1/routes/:id/buses?lat=&lng=. The caller's
// location is mandatory: without it the distance and ETA columns would be
// meaningless, so the request is refused rather than answered with garbage.
func (h *RouteHandler) RouteBuses(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		response.BadRequest(c, "lat and lng query parameters are required")
		return
	}

	viewer := geo.Point{Latitude: lat, Longitude: lng}
	result, err := h.service.RouteBuses(c.Request.Context(), routeID, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// LiveRouteBuses handles GET /api/v1/routes/:id/live?lat=&lng=. It streams
// the route's bus view as server-sent events: one snapshot immediately, then
// one per refresh until the client disconnects. Like RouteBuses, the caller's
// location is mandatory.
func (h *RouteHandler) LiveRouteBuses(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		response.BadRequest(c, "lat and lng query parameters are required")
		return
	}

	w := tracking.NewWatcher(h.service, h.service, routeID, h.refresh, h.logger, nil)
	first := w.LoadInitial(c.Request.Context(), geo.Point{Latitude: lat, Longitude: lng})

	updates := make(chan tracking.Snapshot, 1)
	w.Subscribe(func(snap tracking.Snapshot) {
		// Latest wins; a client that reads slowly just skips frames.
		select {
		case updates <- snap:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		}
	})

	w.Start()
	defer w.Stop()

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("snapshot", first)
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}

// ListStops handles GET /api/v1/stops.
func (h *RouteHandler) ListStops(c *gin.Context) {
	result, err := h.service.ListStops(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
