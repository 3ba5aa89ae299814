// Package common provides shared constants, types, and utilities
// used across vpnkeeper.
package common

import "time"

// Application metadata.
const (
	// AppName is the name of the tool and of its binary.
	AppName = "vpnkeeper"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpnkeeper"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	CredentialsFileName = ".credentials"
	LogFileName         = "vpnkeeper.log"
	HistoryFileName     = "history.db"
)

// Profile and state storage.
const (
	// DefaultProfileDir is where server profiles are written,
	// one <server>.ovpn file per configured server.
	DefaultProfileDir = "/etc/openvpn"
	// ProfileExt is the extension of stored profile files.
	ProfileExt = ".ovpn"
	// DefaultStateFile is the PID file recording the running tunnel
	// daemon. Its presence is the sole source of truth for "connected".
	DefaultStateFile = "/var/run/vpnkeeper.pid"
)

// Network defaults, used when neither flags nor the config file
// override them.
const (
	DefaultInterface        = "eth0"
	DefaultVirtualInterface = "tun0"
	DefaultLANBlock         = "192.168.1.0/24"
	DefaultProviderURL      = "https://api.vpnkeeper.net"
)

// Timeouts and intervals.
const (
	// ShutdownGrace is how long a disconnect waits after signalling the
	// daemon, to let it tear the tunnel down cleanly. This is a plain
	// sleep, not a poll loop; the daemon may still be exiting when a
	// disconnect returns.
	ShutdownGrace = 8 * time.Second
	// ProviderTimeout bounds every HTTP request to the profile provider.
	ProviderTimeout = 15 * time.Second
)
