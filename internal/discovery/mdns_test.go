package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantPath string
	}{
		{
			name: "bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "workbench"},
				HostName:      "pi-lab.local.",
				Port:          7420,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/modem", "serial=/dev/ttyUSB0"},
			},
			wantIP:   "192.168.4.16",
			wantPort: 7420,
			wantPath: "/modem",
		},
		{
			name: "prefers IPv4 over IPv6",
			entry: &zeroconf.ServiceEntry{
				HostName: "dual.local.",
				Port:     9000,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "10.0.0.5",
			wantPort: 9000,
			wantPath: DefaultPath,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "v6.local.",
				Port:     7420,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"path=uart"},
			},
			wantIP:   "fe80::1",
			wantPort: 7420,
			wantPath: "/uart",
		},
		{
			name: "no port defaults",
			entry: &zeroconf.ServiceEntry{
				HostName: "noport.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
			wantPath: DefaultPath,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "ghost.local.",
				Port:     7420,
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}
			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want bridge")
			}
			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %q, want %q", bridge.IP, tt.wantIP)
			}
			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %d, want %d", bridge.Port, tt.wantPort)
			}
			if bridge.Path != tt.wantPath {
				t.Errorf("bridge.Path = %q, want %q", bridge.Path, tt.wantPath)
			}
			if time.Since(bridge.DiscoveredAt) > time.Minute {
				t.Errorf("bridge.DiscoveredAt is not recent: %v", bridge.DiscoveredAt)
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"path=/modem", "serial=/dev/ttyACM0", "flag", "version=1.0=beta", "=orphan"})

	expected := map[string]string{
		"path":    "/modem",
		"serial":  "/dev/ttyACM0",
		"flag":    "",
		"version": "1.0=beta",
	}

	if len(got) != len(expected) {
		t.Errorf("ParseTXT() has %d entries, want %d", len(got), len(expected))
	}
	for key, want := range expected {
		if actual, ok := got[key]; !ok {
			t.Errorf("metadata missing key %q", key)
		} else if actual != want {
			t.Errorf("metadata[%q] = %q, want %q", key, actual, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
