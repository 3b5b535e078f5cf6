package domain

import "errors"

// Failure categories. Components wrap the underlying cause with one of these
// so callers can classify it with errors.Is.
var (
	ErrFetch         = errors.New("fetch failure")
	ErrPersist       = errors.New("persist failure")
	ErrDelivery      = errors.New("delivery failure")
	ErrFatal         = errors.New("fatal failure")
	ErrEmptySequence = errors.New("empty sample sequence")
)
