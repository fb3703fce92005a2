// Package errors provides centralized error handling for reviewapp.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalidTarget indicates an invalid target (org/env/provider) configuration value.
	ErrConfigInvalidTarget = errors.New("invalid target configuration")

	// ErrConfigInvalidPlatform indicates an invalid platform backend configuration value.
	ErrConfigInvalidPlatform = errors.New("invalid platform configuration")

	// ErrConfigInvalidReview indicates an invalid review address or workload environment value.
	ErrConfigInvalidReview = errors.New("invalid review configuration")

	// ErrConfigInvalidGitLab indicates an invalid GitLab configuration value.
	ErrConfigInvalidGitLab = errors.New("invalid GitLab configuration")

	// ErrConfigInvalidSlack indicates an invalid Slack configuration value.
	ErrConfigInvalidSlack = errors.New("invalid Slack configuration")

	// ErrConfigInvalidKafka indicates an invalid Kafka configuration value.
	ErrConfigInvalidKafka = errors.New("invalid Kafka configuration")

	// ErrConfigInvalidHistory indicates an invalid invocation history configuration value.
	ErrConfigInvalidHistory = errors.New("invalid history configuration")

	// ErrConfigInvalidServer indicates an invalid HTTP server configuration value.
	ErrConfigInvalidServer = errors.New("invalid server configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidRequest indicates a review request is missing required fields
	// or could not be decoded.
	ErrInvalidRequest = errors.New("invalid review request")

	// ErrTargetNotFound indicates that the target organization, environment or
	// provider could not be resolved on the platform.
	ErrTargetNotFound = errors.New("target not found")

	// ErrNotFound indicates that the platform has no record with the given name.
	ErrNotFound = errors.New("not found on platform")

	// ErrPlatformOperation indicates that a create, patch or delete call against
	// the infrastructure platform failed.
	ErrPlatformOperation = errors.New("platform operation failed")

	// ErrUnsupportedPatch indicates a patch operation or path that the platform
	// backend does not understand.
	ErrUnsupportedPatch = errors.New("unsupported patch operation")

	// ErrRegistryOperation indicates that a GitLab environment registry call failed.
	ErrRegistryOperation = errors.New("registry operation failed")

	// ErrRegistryRecordNotFound indicates that no GitLab environment matched the slug.
	ErrRegistryRecordNotFound = errors.New("registry record not found")

	// ErrNotifyFailed indicates that an announcement could not be delivered.
	ErrNotifyFailed = errors.New("notification failed")

	// ErrInvocationNotFound indicates that no stored invocation matched the lookup.
	ErrInvocationNotFound = errors.New("invocation not found")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvocationFailed indicates that an invocation finished with a fatal step.
	// The CLI returns it so the process exits non-zero after the log is printed.
	ErrInvocationFailed = errors.New("invocation failed")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
