package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge is an orblink-bridge found on the network.
type Bridge struct {
	// Instance is the advertised instance name (e.g., "workbench")
	Instance string

	// Hostname is the mDNS hostname (e.g., "pi-lab.local.")
	Hostname string

	// IP is the preferred address (IPv4 when available)
	IP string

	// Port is the websocket port
	Port int

	// Path is the websocket path serving the modem
	Path string

	// Metadata contains the TXT record data
	// Common fields: "path=/modem", "serial=/dev/ttyUSB0", "version=1.0.0"
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

func (b *Bridge) String() string {
	return fmt.Sprintf("Bridge %s (%s) at %s:%d", b.Instance, b.Hostname, b.IP, b.Port)
}

// URL returns the websocket URL for dialing the bridge.
func (b *Bridge) URL() string {
	return "ws://" + net.JoinHostPort(b.IP, strconv.Itoa(b.Port)) + b.Path
}

// SerialPort returns the serial device the bridge is sharing, if advertised.
func (b *Bridge) SerialPort() string {
	return b.GetMetadata(TXTSerial)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
