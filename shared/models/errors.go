package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// General Request Errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")
	ErrInvalidYears = errors.New("years must be 1 or 10")

	// Model Errors
	ErrModelUnavailable = errors.New("model produced no usable output")
	ErrNameCollision    = errors.New("could not generate a unique name")

	// Advancement Errors
	ErrAdvanceInProgress = errors.New("an advancement is already in progress for this world")

	// Influence Errors
	ErrUnknownBoon        = errors.New("unknown boon")
	ErrInsufficientPoints = errors.New("not enough race points")
)
