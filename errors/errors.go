package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Sentinel kinds for the failure categories callers branch on. They are
// attached with Tagf and checked with Is.
var (
	// ErrNotFound indicates a conversation file that does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrParse indicates malformed persisted content.
	ErrParse = stderrors.New("parse error")
	// ErrConfiguration indicates missing or invalid configuration, such as
	// an absent API key.
	ErrConfiguration = stderrors.New("configuration error")
	// ErrUnknownProvider indicates an unrecognized provider identity.
	ErrUnknownProvider = stderrors.New("unknown provider")
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s", file, line, fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), err)
}

// Tagf creates an error carrying one of the sentinel kinds above, with file
// and line context. The kind is recoverable through Is.
func Tagf(kind error, format string, a ...interface{}) error {
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), kind)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func caller() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}
