package escrow

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrValidation is returned for malformed input such as a bad address, an
	// out-of-range price or deadline, or a missing required field.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration is returned when a prerequisite of an order placement is
	// missing: API key, user credentials or a Safe funder address.
	ErrConfiguration = errors.New("configuration error")
	// ErrSigning is returned when producing a signature fails.
	ErrSigning = errors.New("signing failed")
	// ErrTransport is returned when a request could not be delivered.
	ErrTransport = errors.New("transport failed")
	// ErrProtocol is returned when a response cannot be interpreted.
	ErrProtocol = errors.New("protocol error")
	// ErrRejected is matched by every *RejectionError.
	ErrRejected = errors.New("order rejected")
)

// RejectionError is returned when the venue explicitly declined an order.
type RejectionError struct {
	Reason string
	// Code is the structured error code of the server, if any.
	Code string
	// Status is the embedded HTTP status of the venue, zero if not present.
	Status int
}

func (e *RejectionError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("order rejected by venue: %s", e.Reason)
	case e.Code != "":
		return fmt.Sprintf("order placement failed: %s (code: %s)", e.Reason, e.Code)
	default:
		return fmt.Sprintf("order placement failed: %s", e.Reason)
	}
}

// Is makes errors.Is(err, ErrRejected) hold for rejection errors.
func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

func validationErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}
