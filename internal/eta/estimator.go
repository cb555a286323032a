package eta

import (
	"context"

	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
)

// Estimator computes an arrival estimate for a bus relative to a viewer.
// The production implementation is expected to call a routing service; the
// shipped default is a deterministic placeholder.
type Estimator interface {
	// EstimateMinutes returns the ETA in whole minutes for the bus to reach
	// the viewer's position.
	EstimateMinutes(ctx context.Context, busID uuid.UUID, busPos, viewer geo.Point) (int, error)
}

// PlaceholderEstimator derives a stable pseudo-ETA from the bus ID: the byte
// sum of the ID string modulo 15, offset by 5, giving 5..19 minutes. The value
// is deterministic so repeated refreshes do not jitter, but it carries no
// traffic information.
type PlaceholderEstimator struct{}

// NewPlaceholderEstimator creates the default placeholder estimator.
func NewPlaceholderEstimator() *PlaceholderEstimator {
	return &PlaceholderEstimator{}
}

// EstimateMinutes implements Estimator.
func (PlaceholderEstimator) EstimateMinutes(_ context.Context, busID uuid.UUID, _, _ geo.Point) (int, error) {
	sum := 0
	for _, c := range busID.String() {
		sum += int(c)
	}
	return 5 + sum%15, nil
}

// SpeedEstimator derives an ETA from straight-line distance and an assumed
// average speed. A small step up from the placeholder for deployments without
// a routing service.
type SpeedEstimator struct {
	AvgSpeedKmh float64
}

// NewSpeedEstimator creates a SpeedEstimator with the given average speed.
func NewSpeedEstimator(avgSpeedKmh float64) *SpeedEstimator {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = 20
	}
	return &SpeedEstimator{AvgSpeedKmh: avgSpeedKmh}
}

// EstimateMinutes implements Estimator.
func (e *SpeedEstimator) EstimateMinutes(_ context.Context, _ uuid.UUID, busPos, viewer geo.Point) (int, error) {
	km := geo.DistanceKm(busPos, viewer)
	minutes := int(km / e.AvgSpeedKmh * 60)
	if minutes < 1 {
		minutes = 1
	}
	return minutes, nil
}
