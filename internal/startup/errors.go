package startup

import (
	"errors"
	"fmt"
	"strings"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitSetup covers an unsupported platform and any other failure before
	// the application runs.
	ExitSetup = 1
	// ExitApplication covers an application failure and a malformed
	// invocation.
	ExitApplication = 2
)

// ErrInterrupted may be returned by an application to report that it
// stopped because it was interrupted. The controller treats it as a clean
// stop.
var ErrInterrupted = errors.New("interrupted")

// UnsupportedPlatformError is returned when the configuration names an
// operating system the program does not run on.
type UnsupportedPlatformError struct {
	ID        string
	Supported string
}

func (e *UnsupportedPlatformError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("operating system unknown, only %s is supported", e.Supported)
	}
	return fmt.Sprintf("operating system %s is not supported, only %s is", e.ID, e.Supported)
}

// MissingEntryPointError is returned when the configuration does not name an
// application, or names one that was never registered.
type MissingEntryPointError struct {
	// Missing lists the configuration keys that were not set.
	Missing    []string
	EntryPoint EntryPoint
}

func (e *MissingEntryPointError) Error() string {
	if len(e.Missing) > 0 {
		return "application entry point not configured: missing " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("application entry point %s is not registered", e.EntryPoint)
}

// PanicError carries a panic recovered from the application.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("application panicked: %v", e.Value)
}
