package vehicle

import "fmt"

// BusStatus represents the operational state of a bus.
type BusStatus string

const (
	StatusAvailable    BusStatus = "available"
	StatusFull         BusStatus = "full"
	StatusMaintenance  BusStatus = "maintenance"
	StatusOutOfService BusStatus = "out_of_service"
)

// validTransitions defines the state machine for bus status changes.
var validTransitions = map[BusStatus][]BusStatus{
	StatusAvailable:    {StatusFull, StatusMaintenance, StatusOutOfService},
	StatusFull:         {StatusAvailable, StatusMaintenance, StatusOutOfService},
	StatusMaintenance:  {StatusAvailable, StatusOutOfService},
	StatusOutOfService: {StatusMaintenance, StatusAvailable},
}

// IsValid returns true if the status is a recognized bus status.
func (s BusStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BusStatus) CanTransitionTo(target BusStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// InService returns true if the bus can carry passengers in this status.
func (s BusStatus) InService() bool {
	return s == StatusAvailable || s == StatusFull
}

// String returns the string representation of the status.
func (s BusStatus) String() string {
	return string(s)
}

// ParseBusStatus converts a string to a BusStatus, returning an error if invalid.
func ParseBusStatus(s string) (BusStatus, error) {
	status := BusStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid bus status: %s", s)
	}
	return status, nil
}
