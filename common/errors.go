// Package common provides shared constants, types, and utilities
// used across vpnkeeper.
package common

import "errors"

// Sentinel errors for lifecycle operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Privilege errors.
	ErrRootRequired = errors.New("root privileges required")

	// Provider errors.
	ErrAuthFailed    = errors.New("authentication rejected by provider")
	ErrAccessDenied  = errors.New("provider denied profile generation for this account")
	ErrUnknownServer = errors.New("provider has no such server")

	// Profile errors.
	ErrNotConfigured = errors.New("server is not configured")
	ErrProfileWrite  = errors.New("failed to write profile")
	ErrProfilePerms  = errors.New("failed to set profile permissions")

	// Daemon errors.
	ErrLaunch   = errors.New("failed to start tunnel daemon")
	ErrShutdown = errors.New("failed to signal tunnel daemon")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// Exit codes reported to the shell, one per error kind so scripts can
// distinguish failures without parsing messages.
const (
	ExitFailure       = 1
	ExitRootRequired  = 2
	ExitAuthFailed    = 3
	ExitAccessDenied  = 4
	ExitUnknownServer = 5
	ExitNotConfigured = 6
	ExitProfileWrite  = 7
	ExitProfilePerms  = 8
	ExitLaunch        = 9
	ExitShutdown      = 10
)

// ExitCode maps an error to its shell exit code. Unrecognized errors
// map to ExitFailure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrRootRequired):
		return ExitRootRequired
	case errors.Is(err, ErrAuthFailed):
		return ExitAuthFailed
	case errors.Is(err, ErrAccessDenied):
		return ExitAccessDenied
	case errors.Is(err, ErrUnknownServer):
		return ExitUnknownServer
	case errors.Is(err, ErrNotConfigured):
		return ExitNotConfigured
	case errors.Is(err, ErrProfileWrite):
		return ExitProfileWrite
	case errors.Is(err, ErrProfilePerms):
		return ExitProfilePerms
	case errors.Is(err, ErrLaunch):
		return ExitLaunch
	case errors.Is(err, ErrShutdown):
		return ExitShutdown
	default:
		return ExitFailure
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
