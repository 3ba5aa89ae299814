// Package config provides configuration management for vpnkeeper.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dcampos/vpnkeeper/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config
// directory; command-line flags override individual fields per run.
type Config struct {
	// ProfileDir is the directory holding one profile file per server.
	ProfileDir string `yaml:"profile_dir"`
	// Interface is the physical network interface.
	Interface string `yaml:"interface"`
	// VirtualInterface is the tunnel interface created by the daemon.
	VirtualInterface string `yaml:"virtual_interface"`
	// LANBlock is the local network in CIDR notation.
	LANBlock string `yaml:"lan_block"`
	// ProviderURL is the base URL of the profile provider API.
	ProviderURL string `yaml:"provider_url"`
	// StateFile is the PID file recording the running daemon.
	StateFile string `yaml:"state_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProfileDir:       common.DefaultProfileDir,
		Interface:        common.DefaultInterface,
		VirtualInterface: common.DefaultVirtualInterface,
		LANBlock:         common.DefaultLANBlock,
		ProviderURL:      common.DefaultProviderURL,
		StateFile:        common.DefaultStateFile,
	}
}

// Load loads the configuration from the config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}

	config.validate()

	return &config, nil
}

// validate fills missing fields with defaults and falls back to the
// default LAN block when the configured one does not parse.
func (c *Config) validate() {
	def := DefaultConfig()

	if c.ProfileDir == "" {
		c.ProfileDir = def.ProfileDir
	}
	if c.Interface == "" {
		c.Interface = def.Interface
	}
	if c.VirtualInterface == "" {
		c.VirtualInterface = def.VirtualInterface
	}
	if c.ProviderURL == "" {
		c.ProviderURL = def.ProviderURL
	}
	if c.StateFile == "" {
		c.StateFile = def.StateFile
	}

	if _, _, err := net.ParseCIDR(c.LANBlock); err != nil {
		c.LANBlock = def.LANBlock
	}
}

// Save saves the configuration to the config file.
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}

func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
