package routing

import (
	"errors"
	"fmt"
)

var (
	ErrSnapFailure        = errors.New("point outside network")
	ErrIdenticalEndpoints = errors.New("points too close")
	ErrNoPath             = errors.New("no path")
	ErrUnreachableBoth    = errors.New("route not found")
)

type Code string

const (
	CODE_SNAP_FAILURE       Code = "snap_failure"
	CODE_IDENTICAL_ENDPOINT Code = "identical_endpoints"
	CODE_NO_PATH            Code = "no_path"
	CODE_UNREACHABLE_BOTH   Code = "unreachable_both"
)

// Error is a per-request routing failure. Err is one of the sentinels above.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, sentinel error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: sentinel}
}
