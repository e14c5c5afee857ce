package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnimplementedStrategy = errors.New("unimplemented planning strategy")
	ErrNoJobs                = errors.New("planner requires at least one transfer job")
	ErrPrecondition          = errors.New("planning precondition violated")
	ErrNoSuchObject          = errors.New("object does not exist")
	ErrNoSuchBucket          = errors.New("bucket does not exist")
	ErrPlanNotFound          = errors.New("no stored plan for transfer")
)

// Preconditionf wraps ErrPrecondition so callers can match the category with
// errors.Is while still reading the strategy-specific cause.
func Preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

func ConfigNotSetError(config string) error {
	return fmt.Errorf("the %s configuration value must be set", config)
}

// InvalidParameterError reports a non-positive planner construction parameter.
func InvalidParameterError(name string, value interface{}) error {
	return fmt.Errorf("planner parameter %s must be positive, got %v", name, value)
}
