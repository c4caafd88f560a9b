package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(configDir, "orblink") {
		t.Errorf("GetConfigDir() = %v, should contain 'orblink'", configDir)
	}
	if runtime.GOOS == "linux" && configDir != filepath.Join("/tmp/xdg", "orblink") {
		t.Errorf("GetConfigDir() = %v, want XDG_CONFIG_HOME based path", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	profile, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if profile.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", profile.Version, CurrentVersion)
	}
	if profile.Device.Baud != 115200 {
		t.Errorf("Baud = %d, want 115200", profile.Device.Baud)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	profile := NewProfile()
	profile.Device.Port = "/dev/ttyUSB0"
	profile.Network.SSID = "home"
	profile.Network.Password = "hunter2"
	profile.PingURL = "http://example.com/"
	profile.Timeouts.Join = 20 * time.Second

	if err := profile.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("saved profile contains the password:\n%s", data)
	}
	if !strings.HasPrefix(string(data), "# orblink configuration file") {
		t.Errorf("saved profile is missing the header:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Device.Port != "/dev/ttyUSB0" {
		t.Errorf("Port = %q", loaded.Device.Port)
	}
	if loaded.Network.SSID != "home" {
		t.Errorf("SSID = %q", loaded.Network.SSID)
	}
	if loaded.Network.Password != "" {
		t.Errorf("Password = %q, want empty", loaded.Network.Password)
	}
	if loaded.Timeouts.Join != 20*time.Second {
		t.Errorf("Join timeout = %s, want 20s", loaded.Timeouts.Join)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ORBLINK_PORT", "/dev/ttyACM1")
	t.Setenv("ORBLINK_BAUD", "9600")
	t.Setenv("ORBLINK_WIFI_SSID", "office")
	t.Setenv("ORBLINK_WIFI_PASSWORD", "s3cret")
	t.Setenv("ORBLINK_JOIN_TIMEOUT", "30s")

	profile := NewProfile()
	profile.Device.Port = "/dev/ttyUSB0"
	profile.PingURL = "http://example.com/"

	if err := ApplyEnv(profile); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if profile.Device.Port != "/dev/ttyACM1" {
		t.Errorf("Port = %q, want env value", profile.Device.Port)
	}
	if profile.Device.Baud != 9600 {
		t.Errorf("Baud = %d, want 9600", profile.Device.Baud)
	}
	if profile.Network.SSID != "office" || profile.Network.Password != "s3cret" {
		t.Errorf("Network = %+v", profile.Network)
	}
	if profile.Timeouts.Join != 30*time.Second {
		t.Errorf("Join timeout = %s, want 30s", profile.Timeouts.Join)
	}
	if profile.PingURL != "http://example.com/" {
		t.Errorf("PingURL = %q, unset variable should keep file value", profile.PingURL)
	}
	if !profile.HasCredentials() {
		t.Error("HasCredentials() = false, want true")
	}
}

func TestApplyEnvInvalidValue(t *testing.T) {
	t.Setenv("ORBLINK_BAUD", "fast")

	if err := ApplyEnv(NewProfile()); err == nil {
		t.Fatal("ApplyEnv() error = nil, want parse error")
	}
}

func TestLoadRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 2\n"},
		{"http bridge", "version: 1\ndevice:\n  bridge: http://host/modem\n"},
		{"negative timeout", "version: 1\ntimeouts:\n  open: -1s\n"},
		{"not yaml", "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() error = nil for %q", tt.content)
			}
		})
	}
}

func TestPasswordFromEnvironment(t *testing.T) {
	profile := NewProfile()
	profile.Network.Password = "from-env"

	got, err := profile.Password(nil)
	if err != nil {
		t.Fatalf("Password() error = %v", err)
	}
	if got != "from-env" {
		t.Errorf("Password() = %q", got)
	}
}
