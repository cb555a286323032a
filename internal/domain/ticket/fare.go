package ticket

import "fmt"

// FareStrategy defines the interface for calculating ticket fares.
type FareStrategy interface {
	// Calculate returns the fare in the smallest currency unit for one ticket.
	Calculate(params FareParams) (int64, error)
}

// FareParams holds the inputs for fare calculation.
type FareParams struct {
	DistanceKm float64
	StopCount  int
	Quantity   int
}

// StandardFareStrategy implements the flat-plus-distance fare scheme.
type StandardFareStrategy struct{}

// NewStandardFareStrategy creates a new StandardFareStrategy.
func NewStandardFareStrategy() *StandardFareStrategy {
	return &StandardFareStrategy{}
}

// Calculate computes the total fare in rupiah.
//
// Fare formula per ticket:
//   - Base fare: IDR 3,000
//   - Distance: IDR 500/km between origin and destination stops
//   - Long routes (more than 10 stops traversed) add a flat IDR 1,000
func (s *StandardFareStrategy) Calculate(params FareParams) (int64, error) {
	if params.DistanceKm < 0 {
		return 0, fmt.Errorf("distance cannot be negative")
	}
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	var perTicket int64 = 3000
	perTicket += int64(params.DistanceKm * 500)
	if params.StopCount > 10 {
		perTicket += 1000
	}

	return perTicket * int64(quantity), nil
}
