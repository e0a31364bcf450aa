package tracker

import (
	"errors"
)

var (
	ErrValidation   = errors.New("invalid or missing field")
	ErrUnbound      = errors.New("connection has no unit session")
	ErrAlreadyBound = errors.New("connection already has a unit session")
	ErrSOSConflict  = errors.New("unit already has an active sos")
	ErrStorage      = errors.New("storage unavailable")
)

// ErrorCode maps an error to the stable code carried in an error event.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnbound):
		return "unbound"
	case errors.Is(err, ErrAlreadyBound):
		return "already_bound"
	case errors.Is(err, ErrSOSConflict):
		return "sos_conflict"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
