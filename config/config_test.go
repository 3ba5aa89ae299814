package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dcampos/vpnkeeper/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ProfileDir != "/etc/openvpn" {
		t.Errorf("ProfileDir = %q, want /etc/openvpn", cfg.ProfileDir)
	}
	if cfg.Interface != "eth0" {
		t.Errorf("Interface = %q, want eth0", cfg.Interface)
	}
	if cfg.VirtualInterface != "tun0" {
		t.Errorf("VirtualInterface = %q, want tun0", cfg.VirtualInterface)
	}
	if cfg.LANBlock != "192.168.1.0/24" {
		t.Errorf("LANBlock = %q, want 192.168.1.0/24", cfg.LANBlock)
	}
	if cfg.StateFile == "" {
		t.Error("StateFile should have a default")
	}
}

func TestLoad_CreatesDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProfileDir != DefaultConfig().ProfileDir {
		t.Errorf("ProfileDir = %q, want default", cfg.ProfileDir)
	}

	// The default file should now exist on disk.
	path, _ := getConfigPath()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ProfileDir = "/tmp/profiles"
	cfg.LANBlock = "10.0.0.0/24"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ProfileDir != "/tmp/profiles" {
		t.Errorf("ProfileDir = %q, want /tmp/profiles", loaded.ProfileDir)
	}
	if loaded.LANBlock != "10.0.0.0/24" {
		t.Errorf("LANBlock = %q, want 10.0.0.0/24", loaded.LANBlock)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", common.ConfigDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	bad := []byte("profile_dir: /etc/openvpn\nno_such_field: true\n")
	if err := os.WriteFile(filepath.Join(dir, common.ConfigFileName), bad, 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject unknown fields")
	}
	if !errors.Is(err, common.ErrConfigLoad) {
		t.Errorf("error should wrap ErrConfigLoad, got %v", err)
	}
}

func TestValidate_BadLANBlockFallsBack(t *testing.T) {
	cfg := &Config{LANBlock: "not-a-cidr"}
	cfg.validate()

	if cfg.LANBlock != DefaultConfig().LANBlock {
		t.Errorf("LANBlock = %q, want default fallback", cfg.LANBlock)
	}
	if cfg.Interface != DefaultConfig().Interface {
		t.Errorf("empty Interface should be filled with default")
	}
}
