package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrBadRequest = errors.New("bad request")

	// Capture path errors
	ErrMalformedSubmission = errors.New("malformed submission")
	ErrPersistence         = errors.New("failed to persist attempt")

	// Log file errors
	ErrLogNotFound = errors.New("log file not found")
	ErrCorruptLog  = errors.New("log file is not a valid JSON array")
)
