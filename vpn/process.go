// Package vpn provides the VPN connection lifecycle for vpnkeeper.
// This file contains the Launcher abstraction over the tunnel daemon
// process and its OpenVPN implementation.
package vpn

import (
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/dcampos/vpnkeeper/common"
)

// Launcher starts and signals the tunnel daemon. It is the only part
// of the lifecycle that touches OS processes, so the Manager stays
// platform-agnostic and testable with fakes.
type Launcher interface {
	// LaunchDetached starts the daemon in the background using the
	// given profile. The daemon is responsible for writing its own PID
	// to pidPath once it has detached.
	LaunchDetached(configPath, pidPath string) error
	// Terminate sends the daemon a termination signal.
	Terminate(pid int) error
	// Alive reports whether a process with the given PID exists.
	Alive(pid int) bool
}

// OpenVPNLauncher launches openvpn as a detached daemon.
type OpenVPNLauncher struct {
	// Binary is the openvpn executable; resolved from PATH when empty.
	Binary string
}

// NewOpenVPNLauncher creates a launcher for the openvpn binary on PATH.
func NewOpenVPNLauncher() *OpenVPNLauncher {
	return &OpenVPNLauncher{Binary: "openvpn"}
}

// LaunchDetached runs openvpn with --daemon, which forks to the
// background, and --writepid, which makes the daemon record its own
// PID. The foreground parent exits once the daemon is up, so Run
// returning is not a completion wait.
func (l *OpenVPNLauncher) LaunchDetached(configPath, pidPath string) error {
	binary := l.Binary
	if binary == "" {
		binary = "openvpn"
	}

	cmd := exec.Command(binary,
		"--config", configPath,
		"--daemon",
		"--writepid", pidPath,
	)

	common.LogDebug("launching tunnel daemon: %s --config %s --daemon --writepid %s",
		binary, configPath, pidPath)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %v: %s", common.ErrLaunch, err, output)
	}
	return nil
}

// Terminate sends SIGTERM to the daemon.
func (l *OpenVPNLauncher) Terminate(pid int) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("%w: signal pid %d: %v", common.ErrShutdown, pid, err)
	}
	return nil
}

// Alive probes the process with signal 0. EPERM means the process
// exists but belongs to someone else, which still counts as alive.
func (l *OpenVPNLauncher) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
