package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "orblink"
	configFile = "config.yaml"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// ErrNoPassword is returned when no password is available and stdin is not a terminal.
var ErrNoPassword = errors.New("no WiFi password: set ORBLINK_WIFI_PASSWORD or run interactively")

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/orblink or $HOME/.config/orblink
//   - macOS: $HOME/.config/orblink
//   - Windows: %LOCALAPPDATA%\orblink
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the profile at path, or at GetConfigPath when path is empty.
// A missing file yields NewProfile. Environment overrides are applied.
func Load(path string) (*Profile, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	profile, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(profile); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return profile, nil
}

func loadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	profile := NewProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return profile, nil
}

// ApplyEnv overlays ORBLINK_* environment variables onto p. Unset variables
// leave the existing values untouched.
func ApplyEnv(p *Profile) error {
	if err := env.Parse(p); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes p to path, or to GetConfigPath when path is empty.
// Performs an atomic write to prevent corruption on crash.
func (p *Profile) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# orblink configuration file
#
# Security Note: the WiFi password is NEVER stored in this file.
# Set ORBLINK_WIFI_PASSWORD or enter it when prompted.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Password returns the WiFi password, prompting on the terminal when the
// environment did not supply one. The answer is kept in memory only.
func (p *Profile) Password(prompt io.Writer) (string, error) {
	if p.Network.Password != "" {
		return p.Network.Password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoPassword
	}

	fmt.Fprintf(prompt, "WiFi password for %q: ", p.Network.SSID)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	p.Network.Password = strings.TrimRight(string(raw), "\r\n")
	if p.Network.Password == "" {
		return "", ErrNoPassword
	}
	return p.Network.Password, nil
}
