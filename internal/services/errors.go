package services

import (
	"errors"

	"gasrate/internal/dataprocessing"
)

// Analysis service errors
var (
	// Input errors
	ErrNoFilesUploaded  = errors.New("no files uploaded")
	ErrTooManyFiles     = dataprocessing.ErrTooManyFiles
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrInvalidThreshold = errors.New("spike threshold must be positive")

	// Result errors
	ErrResultNotFound    = errors.New("analysis result not found")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
