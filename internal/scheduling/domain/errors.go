package domain

import "errors"

// Errors returned by the scheduling operations. Callers match them with
// errors.Is; detail is added by wrapping.
var (
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidTime          = errors.New("invalid time")
	ErrUnresolvedMentor     = errors.New("assigned mentor not found for this user")
	ErrNotFound             = errors.New("schedule request not found")
	ErrForbidden            = errors.New("not authorized for this schedule request")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrMissingConfirmedTime = errors.New("confirmed time is required when confirming a meeting")
	ErrInvalidField         = errors.New("invalid field")
	ErrDependencyFailure    = errors.New("dependency failure")
)
