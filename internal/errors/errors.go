package errors

import "errors"

// Input and state errors, surfaced before or instead of a remote call.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFolderExists = errors.New("folder already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

// Remote store errors.
var (
	ErrNotFound     = errors.New("entry not found")
	ErrConflict     = errors.New("remote conflict")
	ErrUploadFailed = errors.New("upload failed")
	ErrAPIRequest   = errors.New("API request failed")
	ErrAPIResponse  = errors.New("unexpected API response")
)
