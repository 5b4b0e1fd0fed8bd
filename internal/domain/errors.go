package domain

import "errors"

var (
	// ErrMissingParameters is returned when a required request field is empty
	ErrMissingParameters = errors.New("missing parameters")

	// ErrJobInProgress is returned when a job identifier is already running
	// and duplicate identifiers are rejected
	ErrJobInProgress = errors.New("download already in progress")

	// ErrFileNotFound is returned when a requested download file cannot be served
	ErrFileNotFound = errors.New("file not found")
)
