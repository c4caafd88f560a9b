package config

import (
	"fmt"
	"strings"
	"time"
)

// CurrentVersion is the profile schema version written by Save.
const CurrentVersion = 1

// Profile is the persisted orblink configuration.
//
// Every field can be overridden by an ORBLINK_* environment variable, see
// ApplyEnv. The WiFi password is accepted from the environment only and is
// never marshalled.
type Profile struct {
	Version  int           `yaml:"version"`
	Device   DeviceConfig  `yaml:"device"`
	Network  NetworkConfig `yaml:"network"`
	PingURL  string        `yaml:"ping_url,omitempty" env:"ORBLINK_PING_URL"`
	LogLevel string        `yaml:"log_level,omitempty" env:"ORBLINK_LOG_LEVEL"`
	Timeouts Timeouts      `yaml:"timeouts"`
}

// DeviceConfig selects the modem. Bridge takes precedence over Port when set.
type DeviceConfig struct {
	// Port is the local serial device, e.g. /dev/ttyUSB0
	Port string `yaml:"port,omitempty" env:"ORBLINK_PORT"`
	// Baud is the UART speed
	Baud int `yaml:"baud,omitempty" env:"ORBLINK_BAUD"`
	// Bridge is a ws:// URL of an orblink-bridge
	Bridge string `yaml:"bridge,omitempty" env:"ORBLINK_BRIDGE"`
}

// NetworkConfig describes the access point to join.
type NetworkConfig struct {
	SSID     string `yaml:"ssid,omitempty" env:"ORBLINK_WIFI_SSID"`
	Password string `yaml:"-" env:"ORBLINK_WIFI_PASSWORD"`
}

// Timeouts groups the waits used by the CLI. Zero means the package default.
type Timeouts struct {
	Command time.Duration `yaml:"command,omitempty" env:"ORBLINK_COMMAND_TIMEOUT"`
	Join    time.Duration `yaml:"join,omitempty" env:"ORBLINK_JOIN_TIMEOUT"`
	Open    time.Duration `yaml:"open,omitempty" env:"ORBLINK_OPEN_TIMEOUT"`
	Get     time.Duration `yaml:"get,omitempty" env:"ORBLINK_GET_WAIT"`
	Post    time.Duration `yaml:"post,omitempty" env:"ORBLINK_POST_WAIT"`
}

// NewProfile returns a profile with defaults.
func NewProfile() *Profile {
	return &Profile{
		Version: CurrentVersion,
		Device: DeviceConfig{
			Baud: 115200,
		},
	}
}

// Validate checks the profile for values the modem packages cannot use.
func (p *Profile) Validate() error {
	if p.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", p.Version, CurrentVersion)
	}
	if p.Device.Baud < 0 {
		return fmt.Errorf("invalid baud rate: %d", p.Device.Baud)
	}
	if p.Device.Bridge != "" && !strings.HasPrefix(p.Device.Bridge, "ws://") && !strings.HasPrefix(p.Device.Bridge, "wss://") {
		return fmt.Errorf("bridge URL must use ws:// or wss://, got %q", p.Device.Bridge)
	}
	for name, d := range map[string]time.Duration{
		"command": p.Timeouts.Command,
		"join":    p.Timeouts.Join,
		"open":    p.Timeouts.Open,
		"get":     p.Timeouts.Get,
		"post":    p.Timeouts.Post,
	} {
		if d < 0 {
			return fmt.Errorf("timeout %s must not be negative: %s", name, d)
		}
	}
	return nil
}

// HasCredentials reports whether both SSID and password are known.
func (p *Profile) HasCredentials() bool {
	return p.Network.SSID != "" && p.Network.Password != ""
}
