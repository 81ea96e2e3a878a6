package ride

import (
	"errors"
	"strings"
)

// Status is a ride lifecycle state as stored and served on the wire.
type Status string

const (
	StatusRequested Status = "requested"
	StatusAssigned  Status = "assigned"
	StatusEnroute   Status = "enroute"
	StatusArrived   Status = "arrived"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is a member of the enumeration.
func (status Status) Valid() bool {
	switch status {
	case StatusRequested, StatusAssigned, StatusEnroute, StatusArrived, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Terminal indicates the status permits no further transitions.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}
