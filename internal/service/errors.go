package service

import "errors"

// Common service errors
var (
	// ErrUnknownEntity is returned for entities that have no draft support
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidChange is returned when a field change cannot be applied to a draft
	ErrInvalidChange = errors.New("invalid field change")
)
