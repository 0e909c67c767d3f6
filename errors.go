package launchd

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	// ErrLaunchctl covers spawn failures, fatal launchctl exits and policy
	// rejections by EnsureUserAgent
	ErrLaunchctl = errors.New("launchctl error")

	// ErrPlist indicates malformed property-list content or a non-dictionary root
	ErrPlist = errors.New("plist error")

	// ErrNotFound indicates a referenced file does not exist
	ErrNotFound = errors.New("file not found")

	// ErrIO wraps filesystem read/write/metadata failures
	ErrIO = errors.New("io error")
)

// OpError represents an error from a launchd operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Path is the plist path or label involved in the operation
	Path string
	// Kind is one of ErrLaunchctl, ErrPlist, ErrNotFound or ErrIO
	Kind error
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%v: %s %q: %v", e.Kind, e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error
func (e *OpError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func newOpError(op Operation, path string, kind, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// ioKind maps a filesystem error onto ErrNotFound or ErrIO
func ioKind(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return ErrIO
}

// Render flattens an error and any attached hints into one human-readable
// string for display at an API or CLI boundary.
func Render(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg = strings.TrimRight(msg, " \n") + " " + hint
	}
	return msg
}

// MultiError aggregates multiple errors from bulk operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
