package service

import (
	"errors"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// Storage sentinels are re-exported so callers only import service.
var (
	ErrNotFound          = repository.ErrNotFound
	ErrAlreadyRegistered = repository.ErrAlreadyRegistered
	ErrAlreadyWaitlisted = repository.ErrAlreadyWaitlisted
	ErrDuplicate         = repository.ErrDuplicate
)

var (
	ErrNoAvailablePass      = errors.New("no available pass")
	ErrSpotsUnavailable     = errors.New("no spots left on this event")
	ErrEventAlreadyStarted  = errors.New("event has already started")
	ErrPassNotAllowed       = errors.New("passes cannot be used for this event")
	ErrSpotsAvailable       = errors.New("event still has free spots")
	ErrRegistrationInactive = errors.New("registration is not active")
	ErrPassRequestDecided   = errors.New("pass request already decided")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
)

// promotionFailure reports whether err means this waitlist entry can never
// be promoted right now, as opposed to an infrastructure failure.
func promotionFailure(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrNoAvailablePass) ||
		errors.Is(err, ErrPassNotAllowed) ||
		errors.Is(err, ErrInvalidInput)
}
