// Package reproerr defines the distinguished failure kinds of spec §4.2 and
// the uniform "mark failed" dispatch policy of spec §7. It follows the
// sentinel-plus-wrapper idiom of the teacher's domain error packages
// (github.com/WessleyAI/wessley-mvp's engine/domain/errors.go): a small set
// of sentinel errors, wrapped with context via errors.As-friendly types.
package reproerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Each maps 1:1 to a status transition performed by the
// owning worker (spec §4.2).
var (
	ErrRepoClone          = errors.New("repo clone failed")
	ErrNoEnvironmentFound = errors.New("no environment detected")
	ErrDockerBuild        = errors.New("docker build failed")
	ErrExecution          = errors.New("execution failed")
	ErrExecutionTimeout   = errors.New("execution timed out")
)

// Kind names the error, for the structured log's `error` field and for
// dispatch in the worker's uniform failure handler.
type Kind string

const (
	KindRepoClone      Kind = "RepoCloneError"
	KindNoEnvironment  Kind = "NoEnvironmentDetectedError"
	KindDockerBuild    Kind = "DockerBuildError"
	KindExecution      Kind = "ExecutionError"
	KindExecutionTimeout Kind = "ExecutionTimeoutError"
	KindUnexpected     Kind = "UnexpectedError"
)

// Error wraps a sentinel kind with human-readable context. It satisfies
// errors.Unwrap so callers can still `errors.Is(err, ErrRepoClone)`.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Wrapped)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newErr(kind Kind, sentinel error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Wrapped: sentinel,
	}
}

// RepoClone wraps a source-retrieval failure (bad scheme, unreachable host,
// non-GitHub host, missing local path).
func RepoClone(format string, args ...interface{}) *Error {
	return newErr(KindRepoClone, ErrRepoClone, format, args...)
}

// NoEnvironment wraps a failure to recognize any dependency manifest.
func NoEnvironment(format string, args ...interface{}) *Error {
	return newErr(KindNoEnvironment, ErrNoEnvironmentFound, format, args...)
}

// DockerBuildFailed wraps an image construction failure.
func DockerBuildFailed(format string, args ...interface{}) *Error {
	return newErr(KindDockerBuild, ErrDockerBuild, format, args...)
}

// Execution wraps a non-timeout container execution failure, or a violated
// security precondition.
func Execution(format string, args ...interface{}) *Error {
	return newErr(KindExecution, ErrExecution, format, args...)
}

// ExecutionTimeout wraps a wall-clock budget violation.
func ExecutionTimeout(format string, args ...interface{}) *Error {
	return newErr(KindExecutionTimeout, ErrExecutionTimeout, format, args...)
}

// Classify maps any error to the Kind the worker should report. Unrecognized
// errors map to KindUnexpected, matching spec §4.2's "any other exception is
// treated as unexpected" rule.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message renders the single-line, user-visible error_message for a failure
// (spec §7).
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
