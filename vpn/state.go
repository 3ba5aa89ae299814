// Package vpn provides the VPN connection lifecycle for vpnkeeper.
// This file contains the StateStore, the single piece of durable
// daemon state: the PID file written by the running tunnel daemon.
package vpn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// StateStore reads and clears the daemon PID file. The file is written
// by the daemon itself at launch (see Launcher.LaunchDetached); the
// manager never writes it directly. Presence of the file is the sole
// source of truth for "connected".
type StateStore struct {
	path string
}

// NewStateStore creates a state store backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the PID file path, for handing to the daemon at launch.
func (s *StateStore) Path() string {
	return s.path
}

// Read returns the recorded daemon PID. A missing file means no daemon
// is recorded and is not an error; unparseable contents are.
func (s *StateStore) Read() (int, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read state file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	return pid, true, nil
}

// Clear removes the PID file, tolerating its absence.
func (s *StateStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear state file: %w", err)
	}
	return nil
}
