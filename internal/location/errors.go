package location

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location request timed out")
	ErrUnavailable      = errors.New("location unavailable")

	// ErrSuperseded is returned for a device result that arrived after a
	// reset or a newer request. It is never surfaced to the user.
	ErrSuperseded = errors.New("location request superseded")

	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// classify maps arbitrary locator errors onto the three user-facing kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrTimeout), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Standortzugriff wurde verweigert"
	case errors.Is(err, ErrTimeout):
		return "Standortabfrage hat zu lange gedauert"
	case errors.Is(err, ErrInvalidCoordinates):
		return "Ungültige Koordinaten"
	default:
		return "Standort ist nicht verfügbar"
	}
}
