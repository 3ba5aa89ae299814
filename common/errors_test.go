package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"root required", ErrRootRequired, ExitRootRequired},
		{"auth failed", ErrAuthFailed, ExitAuthFailed},
		{"access denied", ErrAccessDenied, ExitAccessDenied},
		{"unknown server", ErrUnknownServer, ExitUnknownServer},
		{"not configured", ErrNotConfigured, ExitNotConfigured},
		{"profile write", ErrProfileWrite, ExitProfileWrite},
		{"profile perms", ErrProfilePerms, ExitProfilePerms},
		{"launch", ErrLaunch, ExitLaunch},
		{"shutdown", ErrShutdown, ExitShutdown},
		{"unrecognized", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("connect frankfurt: %w", ErrNotConfigured)
	if got := ExitCode(err); got != ExitNotConfigured {
		t.Errorf("ExitCode(wrapped) = %d, want %d", got, ExitNotConfigured)
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("base")
	wrapped := WrapError(base, "context")

	if wrapped.Error() != "context: base" {
		t.Errorf("WrapError message = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to base")
	}
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestNormalizeServerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Frankfurt", "frankfurt"},
		{"  LONDON  ", "london"},
		{"paris", "paris"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeServerName(tt.in); got != tt.want {
			t.Errorf("NormalizeServerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
