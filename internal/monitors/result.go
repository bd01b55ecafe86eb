package monitors

import (
	"errors"
	"fmt"
)

// Status is the uniform outcome code of every check.
type Status int

const (
	StatusOK       Status = 1
	StatusWarning  Status = 2
	StatusCritical Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the three defined codes.
func (s Status) Valid() bool {
	return s >= StatusOK && s <= StatusCritical
}

// Result is what a check reports for one run.
type Result struct {
	Message string `json:"result"`
	Status  Status `json:"status"`
}

// ErrNotImplemented is returned, with no result, by checks that exist only
// as placeholders.
var ErrNotImplemented = errors.New("check not implemented")

func okResult(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...), Status: StatusOK}
}

func warningResult(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...), Status: StatusWarning}
}

func criticalResult(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...), Status: StatusCritical}
}
