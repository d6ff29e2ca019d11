package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every ConfigurationError
	ErrConfiguration = errors.New("invalid planning configuration")

	// ErrEmptyAttendance is returned by callers that refuse to plan a shift
	// nobody attends. Plan itself never returns it.
	ErrEmptyAttendance = errors.New("no employees selected as present")
)

// ConfigurationError reports inputs that make planning impossible, such as a
// manual assignment into a closed facility or an unknown position.
type ConfigurationError struct {
	Employee string
	Facility string
	Position string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Employee != "" && e.Position != "":
		return fmt.Sprintf("manual assignment %s -> %s/%s: %s", e.Employee, e.Facility, e.Position, e.Reason)
	case e.Employee != "":
		return fmt.Sprintf("employee %s: %s", e.Employee, e.Reason)
	case e.Position != "":
		return fmt.Sprintf("position %s/%s: %s", e.Facility, e.Position, e.Reason)
	default:
		return fmt.Sprintf("facility %s: %s", e.Facility, e.Reason)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
