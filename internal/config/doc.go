// Package config loads and saves the orblink profile.
//
// The profile is a YAML file holding the modem location (serial port and
// baud rate, or a bridge URL), the SSID to join, the ping URL and optional
// timeouts. ORBLINK_* environment variables override any field.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/orblink/config.yaml or $HOME/.config/orblink/config.yaml
//   - macOS: $HOME/.config/orblink/config.yaml
//   - Windows: %LOCALAPPDATA%\orblink\config.yaml
//
// # Security
//
// The WiFi password is NEVER written to disk. It comes from
// ORBLINK_WIFI_PASSWORD or from an interactive prompt.
//
// # Usage Example
//
//	profile, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	password, err := profile.Password(os.Stderr)
package config
