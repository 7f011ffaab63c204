package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource does not exist or is
	// not visible to the requester.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is returned when credentials are missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the requester is not allowed to act on
	// the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when an operation violates a uniqueness or
	// state-machine invariant.
	ErrConflict = errors.New("conflict")
	// ErrNotReady is returned when a precondition for a remote operation is
	// unmet, e.g. the seller cannot receive charges yet.
	ErrNotReady = errors.New("not ready")
	// ErrUpstream is returned when a payment provider call failed. The core
	// does not retry; callers decide on retry/backoff.
	ErrUpstream = errors.New("upstream error")
	// ErrValidation is returned when input validation fails.
	ErrValidation = errors.New("validation error")
)
