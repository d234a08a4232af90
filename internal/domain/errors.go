package domain

import "errors"

var (
	// ErrResourceNotFound means the record is truly absent from storage.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrUnknownResourceKind means a guard asked for a kind the repository
	// does not map. Always a programming or policy error, never user input.
	ErrUnknownResourceKind = errors.New("unknown resource kind")
	// ErrSessionNotFound means no session record exists for a session id.
	ErrSessionNotFound = errors.New("session not found")
)
