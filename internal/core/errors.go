package core

import (
	"errors"
	"fmt"
)

// Pipeline errors. Every error returned by this package wraps one of these
// so callers can branch with errors.Is. All of them are scoped to one file:
// a batch keeps going after any of them.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyFile         = errors.New("empty file")
	ErrMalformed         = errors.New("malformed file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrDuplicateColumn   = errors.New("duplicate column")
	ErrSerialization     = errors.New("serialization failed")
	ErrUndefinedMean     = errors.New("undefined mean")
	ErrUnknownDirective  = errors.New("unknown cleaning directive")
	ErrNotNumeric        = errors.New("column is not numeric")
	ErrChartColumns      = errors.New("not enough columns for chart")
	ErrUnknownChartKind  = errors.New("unknown chart kind")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFailed     = errors.New("session failed")
	ErrNoFiles           = errors.New("no file provided")
	ErrTooManyFiles      = errors.New("too many files in batch")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// UnknownColumnError names the column a projection or chart asked for.
type UnknownColumnError struct {
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q (available: %v)", e.Column, e.Available)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }
