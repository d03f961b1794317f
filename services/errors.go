package services

import "errors"

// Sentinel errors returned by the check-in service. Controllers map these to
// HTTP statuses with errors.Is.
var (
	// ErrInvalidArgument marks malformed input rejected before any write.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a missing check-in or user.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied marks an ownership violation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnavailable marks a persistence failure; the whole operation is safe
	// to retry.
	ErrUnavailable = errors.New("service unavailable")
)
