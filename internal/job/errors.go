package job

import "errors"

// Sentinel errors for the domain-level error kinds in spec.md §7. Every
// package wraps one of these with fmt.Errorf("...: %w", ...) so callers
// can discriminate with errors.Is rather than type assertions.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrPersistence         = errors.New("persistence error")
	ErrQueue               = errors.New("queue error")
	ErrAlreadyExists       = errors.New("already exists")
	ErrExecutionFailed     = errors.New("execution failed")
	ErrTimeout             = errors.New("timeout")
	ErrRetryLimitExceeded  = errors.New("retry limit exceeded")
	ErrCancelled           = errors.New("cancelled")
)
