// Package common provides shared constants, sentinel errors, and
// utilities used throughout vpnkeeper.
//
// This package is the foundation for cross-cutting concerns:
//
//   - Constants: well-known paths, network defaults, and timeouts
//   - Errors: sentinel errors plus the error-kind to exit-code mapping
//   - Logger: leveled logging with rotated file output
//   - Utils: privilege check, server-name canonicalization, path helpers
//
// # Usage
//
//	// Check errors
//	if errors.Is(err, common.ErrNotConfigured) {
//	    // Handle missing profile
//	}
//
//	// Map an error to the process exit code
//	os.Exit(common.ExitCode(err))
//
//	// Use the logger
//	common.LogInfo("connecting to %s", server)
//
// Every error returned by a lifecycle operation wraps exactly one of
// the sentinels here, so a command's exit code is fully determined by
// the failure kind.
package common
