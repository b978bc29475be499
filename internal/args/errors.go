package args

import (
	"errors"
	"fmt"
)

// ErrHelp is returned after usage was printed because help was requested.
var ErrHelp = errors.New("help requested")

// UnknownArgumentError names a command-line flag no option matches.
type UnknownArgumentError struct {
	Token string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("unknown argument %s", e.Token)
}

// RangeError reports a value outside the bounds of its option.
type RangeError struct {
	Key      string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s is %d, must be between %d and %d", e.Key, e.Value, e.Min, e.Max)
}

// SyntaxError wraps any other malformed invocation: a missing or badly typed
// value, or a required option that was not given.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return "invalid arguments: " + e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
