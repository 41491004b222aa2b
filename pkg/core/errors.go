package core

import "errors"

var (
	ErrTextRequired     = errors.New("text is required")
	ErrTextTooLarge     = errors.New("text exceeds maximum allowed size")
	ErrBatchTooLarge    = errors.New("batch exceeds maximum item count")
	ErrBatchEmpty       = errors.New("batch has no items")
	ErrBaselineDisabled = errors.New("vader baseline is disabled")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
