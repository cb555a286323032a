package route

import (
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
)

// Stop is a physical bus stop.
type Stop struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
	Address  string    `json:"address"`
	City     string    `json:"city"`
}

// RouteStop places a stop on a route at a given position in the sequence.
type RouteStop struct {
	Stop      Stop `json:"stop"`
	StopOrder int  `json:"stop_order"`
}
