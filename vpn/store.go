// Package vpn provides the VPN connection lifecycle for vpnkeeper.
// This file contains the ProfileStore, which keeps one profile file
// per configured server in a directory.
package vpn

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcampos/vpnkeeper/common"
)

// remoteMarker starts the profile line naming the tunnel endpoint,
// e.g. "remote 1.2.3.4 443 udp".
const remoteMarker = "remote"

// ProfileStore persists server profiles on disk, one file per server,
// keyed by the canonical (lowercase) server name.
type ProfileStore struct {
	dir string
}

// NewProfileStore creates a profile store rooted at dir.
func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: dir}
}

// Dir returns the directory holding the profiles.
func (s *ProfileStore) Dir() string {
	return s.dir
}

// Path returns the file path a profile for the given server is stored
// at, whether or not it exists.
func (s *ProfileStore) Path(name string) string {
	return filepath.Join(s.dir, common.NormalizeServerName(name)+common.ProfileExt)
}

// List returns the configured server names in sorted filename order.
func (s *ProfileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), common.ProfileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), common.ProfileExt))
	}
	return names, nil
}

// Exists reports whether a profile for the server is configured.
func (s *ProfileStore) Exists(name string) bool {
	return common.FileExists(s.Path(name))
}

// Read returns the profile bytes for the server.
func (s *ProfileStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotConfigured, common.NormalizeServerName(name))
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return data, nil
}

// Write persists the profile for the server with owner-only
// permissions. A failed write and a failed permission change are
// reported distinctly; a profile already written when the permission
// change fails is left in place.
func (s *ProfileStore) Write(name string, profile []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", common.ErrProfileWrite, err)
	}

	path := s.Path(name)
	if err := os.WriteFile(path, profile, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrProfileWrite, err)
	}
	// WriteFile only applies the mode on creation; an overwritten
	// profile keeps its old mode unless chmod'ed explicitly.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrProfilePerms, err)
	}
	return nil
}

// Delete removes the profile for the server.
func (s *ProfileStore) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", common.ErrNotConfigured, common.NormalizeServerName(name))
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// EndpointIPs returns one endpoint address per configured server, in
// List() order. A server whose profile has no remote line is omitted.
func (s *ProfileStore) EndpointIPs() ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	var ips []string
	for _, name := range names {
		data, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		if ip, ok := extractEndpoint(data); ok {
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

// Endpoint returns the endpoint address of a single server's profile.
func (s *ProfileStore) Endpoint(name string) (string, bool, error) {
	data, err := s.Read(name)
	if err != nil {
		return "", false, err
	}
	ip, ok := extractEndpoint(data)
	return ip, ok, nil
}

// extractEndpoint finds the address field of the first remote line.
func extractEndpoint(profile []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(profile))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == remoteMarker {
			return fields[1], true
		}
	}
	return "", false
}
