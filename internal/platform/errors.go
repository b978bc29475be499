package platform

import (
	"errors"
	"fmt"
	"strings"
)

// UnsupportedError is returned when no fact collection routine exists for
// the operating system.
type UnsupportedError struct {
	GOOS string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operating system %q is not supported (supported: %s)", e.GOOS, strings.Join(Supported(), ", "))
}

// PartialFactError reports a collection step that failed while the others
// went on.
type PartialFactError struct {
	Fact string
	Err  error
}

func (e *PartialFactError) Error() string {
	return fmt.Sprintf("cannot collect %s: %v", e.Fact, e.Err)
}

func (e *PartialFactError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoAccount means the user registry has no usable record for the user.
	ErrNoAccount = errors.New("no account record")
	// ErrMalformedAccount means the only records for the user lacked fields.
	ErrMalformedAccount = errors.New("malformed account record")
	// ErrNoUserID means the current user id could not be determined.
	ErrNoUserID = errors.New("current user id unknown")
)
