// Package vpn provides the VPN connection lifecycle for vpnkeeper.
//
// This package implements the core of the tool:
//
//   - Manager: the lifecycle state machine over setup, connect,
//     disconnect, and remove
//   - ProfileStore: on-disk storage of one profile file per server
//   - StateStore: the daemon PID file, the single piece of durable
//     connection state
//   - Launcher: process start/signal/probe abstraction over the
//     tunnel daemon, implemented for OpenVPN
//   - Provider: the profile provider API, implemented over HTTP
//
// # Lifecycle
//
// A typical flow:
//
//  1. setup authenticates with the provider, fetches the profile for a
//     server, and persists it with owner-only permissions
//  2. connect disconnects any recorded daemon, then launches a new one
//     detached; the daemon records its own PID in the state file
//  3. disconnect signals the recorded daemon, waits a fixed grace
//     period, and clears the state file
//  4. remove deletes the stored profile
//
// # State model
//
// The machine has two states, Disconnected and Connected, derived
// fresh from the StateStore on every invocation; nothing is cached in
// memory across commands. Presence of a recorded PID is the sole
// source of truth for "connected".
//
// # Privilege
//
// Every mutating operation, and rule generation, requires
// effective-root privilege, checked before any validation or side
// effect. Failures are terminal for the current command; nothing is
// retried automatically.
package vpn
