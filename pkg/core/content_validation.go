package core

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// DefaultMaxTextBytes bounds a single analysed text. Check-in notes are a few
// sentences; anything near this size is almost certainly not a check-in.
const DefaultMaxTextBytes = 32 * 1024

var maxTextBytes atomic.Int64

func init() {
	maxTextBytes.Store(DefaultMaxTextBytes)
}

// SetMaxTextBytes overrides the runtime text size limit.
func SetMaxTextBytes(limit int64) error {
	if limit <= 0 {
		return fmt.Errorf("%w: max text bytes must be > 0", ErrInvalidConfig)
	}
	maxTextBytes.Store(limit)
	return nil
}

// MaxTextBytes returns the active runtime text size limit.
func MaxTextBytes() int64 {
	limit := maxTextBytes.Load()
	if limit <= 0 {
		return DefaultMaxTextBytes
	}
	return limit
}

// ValidateText checks text against the size limit. Empty text is valid and
// analyses as neutral.
func ValidateText(text string) error {
	if size, limit := int64(len(text)), MaxTextBytes(); size > limit {
		return fmt.Errorf("%w: %d bytes > %d", ErrTextTooLarge, size, limit)
	}
	return nil
}

// ValidateRequiredText is ValidateText for callers where the text is a
// required argument.
func ValidateRequiredText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextRequired
	}
	return ValidateText(text)
}
