// Package vpn provides the VPN connection lifecycle for vpnkeeper.
// This file contains the Manager, the state machine coordinating
// setup, connect, disconnect, and remove.
package vpn

import (
	"context"
	"fmt"
	"time"

	"github.com/dcampos/vpnkeeper/common"
	"github.com/dcampos/vpnkeeper/firewall"
	"github.com/dcampos/vpnkeeper/history"
)

// Status describes the observed daemon state, derived fresh from the
// StateStore on every call.
type Status struct {
	// PID is the recorded daemon process ID, zero when none.
	PID int
	// Recorded reports whether a PID is recorded at all.
	Recorded bool
	// Alive reports whether the recorded process actually exists.
	Alive bool
}

// String returns a human-readable connection state.
func (s Status) String() string {
	switch {
	case !s.Recorded:
		return "Disconnected"
	case s.Alive:
		return "Connected"
	default:
		return "Stale"
	}
}

// Manager coordinates the connection lifecycle. It holds no in-memory
// connection state across operations: every transition starts from
// whatever the StateStore currently records.
type Manager struct {
	store    *ProfileStore
	state    *StateStore
	launcher Launcher
	provider Provider
	history  *history.Store

	// grace is the blocking wait after signalling the daemon.
	grace time.Duration
	// elevated reports effective-root privilege; injectable for tests.
	elevated func() bool
}

// NewManager creates a lifecycle manager over the given collaborators.
func NewManager(store *ProfileStore, state *StateStore, launcher Launcher, provider Provider) *Manager {
	return &Manager{
		store:    store,
		state:    state,
		launcher: launcher,
		provider: provider,
		grace:    common.ShutdownGrace,
		elevated: common.RunningAsRoot,
	}
}

// SetHistory attaches an optional transition log. Recording is
// best-effort and never fails a lifecycle operation.
func (m *Manager) SetHistory(h *history.Store) {
	m.history = h
}

// SetPrivilegeCheck replaces the effective-root probe; injectable so
// privilege failures can be exercised without dropping privileges.
func (m *Manager) SetPrivilegeCheck(check func() bool) {
	m.elevated = check
}

// Store returns the underlying profile store.
func (m *Manager) Store() *ProfileStore {
	return m.store
}

// requireRoot is checked first in every mutating operation, before any
// other validation or side effect.
func (m *Manager) requireRoot() error {
	if !m.elevated() {
		return common.ErrRootRequired
	}
	return nil
}

// Setup obtains the profile for the named server from the provider and
// persists it with owner-only permissions. Re-running setup for the
// same server overwrites the stored profile. When connectAfter is set,
// a successful setup immediately connects.
func (m *Manager) Setup(ctx context.Context, name string, creds Credentials, connectAfter bool) error {
	if err := m.requireRoot(); err != nil {
		return err
	}
	name = common.NormalizeServerName(name)

	session, err := m.provider.Authenticate(ctx, creds)
	if err != nil {
		return fmt.Errorf("setup %s: %w", name, err)
	}

	profile, err := m.provider.Profile(ctx, session, name)
	if err != nil {
		return fmt.Errorf("setup %s: %w", name, err)
	}

	if err := m.store.Write(name, profile); err != nil {
		m.record("setup", name, 0, "failed: "+err.Error())
		return fmt.Errorf("setup %s: %w", name, err)
	}

	common.LogInfo("profile for %s written to %s", name, m.store.Path(name))
	m.record("setup", name, 0, "ok")

	if connectAfter {
		return m.Connect(ctx, name)
	}
	return nil
}

// Connect launches the tunnel daemon for the named server. Any daemon
// recorded as running is disconnected first, so at most one tunnel is
// ever active; the launch happens only if that disconnect succeeds.
// The daemon writes its own PID into the state file.
func (m *Manager) Connect(ctx context.Context, name string) error {
	if err := m.requireRoot(); err != nil {
		return err
	}
	name = common.NormalizeServerName(name)

	if !m.store.Exists(name) {
		return fmt.Errorf("connect %s: %w", name, common.ErrNotConfigured)
	}

	if _, err := m.Disconnect(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}

	if err := m.launcher.LaunchDetached(m.store.Path(name), m.state.Path()); err != nil {
		m.record("connect", name, 0, "failed: "+err.Error())
		return fmt.Errorf("connect %s: %w", name, err)
	}

	// The daemon has written its PID by now; read it back so the
	// transition log carries the real process, not a placeholder.
	pid, _, _ := m.state.Read()

	common.LogInfo("tunnel daemon %d launched for %s", pid, name)
	m.record("connect", name, pid, "ok")
	return nil
}

// Disconnect terminates the recorded tunnel daemon, reporting whether
// one was recorded at all. With nothing recorded it is a no-op
// success. On a signalling failure the state is left untouched so a
// retry is possible; on success the record is cleared unconditionally,
// whether or not the process still existed.
func (m *Manager) Disconnect(ctx context.Context) (bool, error) {
	if err := m.requireRoot(); err != nil {
		return false, err
	}

	pid, recorded, err := m.state.Read()
	if err != nil {
		return false, fmt.Errorf("disconnect: %w", err)
	}
	if !recorded {
		return false, nil
	}

	if err := m.launcher.Terminate(pid); err != nil {
		m.record("disconnect", "", pid, "failed: "+err.Error())
		return false, fmt.Errorf("disconnect: %w", err)
	}

	// Fixed grace wait for the daemon to tear the tunnel down. This is
	// a plain sleep, not a poll loop; the daemon may still be exiting
	// when control returns.
	time.Sleep(m.grace)

	if err := m.state.Clear(); err != nil {
		return true, fmt.Errorf("disconnect: %w", err)
	}

	common.LogInfo("tunnel daemon %d signalled, state cleared", pid)
	m.record("disconnect", "", pid, "ok")
	return true, nil
}

// Remove deletes the profile for the named server. It never implicitly
// disconnects: removing the active server's profile while connected is
// allowed and left to the operator.
func (m *Manager) Remove(name string) error {
	if err := m.requireRoot(); err != nil {
		return err
	}
	name = common.NormalizeServerName(name)

	if err := m.store.Delete(name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}

	common.LogInfo("profile for %s removed", name)
	m.record("remove", name, 0, "ok")
	return nil
}

// Status reports the observed daemon state.
func (m *Manager) Status() (Status, error) {
	pid, recorded, err := m.state.Read()
	if err != nil {
		return Status{}, err
	}
	status := Status{PID: pid, Recorded: recorded}
	if recorded {
		status.Alive = m.launcher.Alive(pid)
	}
	return status, nil
}

// Servers authenticates and lists the servers available to the account.
func (m *Manager) Servers(ctx context.Context, creds Credentials) ([]Server, error) {
	session, err := m.provider.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return m.provider.Servers(ctx, session)
}

// Rules renders the firewall rule set confining traffic to the tunnel,
// the LAN, and loopback, using the endpoint of every configured
// profile. Rule generation mutates nothing but still requires root,
// matching the rest of the lifecycle surface.
func (m *Manager) Rules(lanBlock, iface, vif string) (string, error) {
	if err := m.requireRoot(); err != nil {
		return "", err
	}

	ips, err := m.store.EndpointIPs()
	if err != nil {
		return "", fmt.Errorf("rules: %w", err)
	}

	set := firewall.Generate(firewall.Params{
		LANBlock:         lanBlock,
		Interface:        iface,
		VirtualInterface: vif,
		EndpointIPs:      ips,
	})
	return set.Render(), nil
}

// record appends a transition to the history log, when one is attached.
func (m *Manager) record(op, server string, pid int, outcome string) {
	if m.history == nil {
		return
	}
	if err := m.history.Record(op, server, pid, outcome); err != nil {
		common.LogWarn("failed to record %s in history: %v", op, err)
	}
}
