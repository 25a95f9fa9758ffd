package registrations

import "errors"

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAccessDenied         = errors.New("registration does not belong to user")
	ErrAlreadyCancelled     = errors.New("registration is already cancelled")
	ErrAlreadyPaid          = errors.New("registration has a paid payment and cannot be cancelled")
	ErrEventClosed          = errors.New("event is not open for registration")
)
