package discovery

import "testing"

func TestBridge_URL(t *testing.T) {
	tests := []struct {
		name   string
		bridge Bridge
		want   string
	}{
		{"ipv4", Bridge{IP: "192.168.1.9", Port: 7420, Path: "/modem"}, "ws://192.168.1.9:7420/modem"},
		{"ipv6", Bridge{IP: "fe80::1", Port: 7420, Path: "/modem"}, "ws://[fe80::1]:7420/modem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bridge.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBridge_String(t *testing.T) {
	b := &Bridge{Instance: "workbench", Hostname: "pi.local.", IP: "10.0.0.2", Port: 7420}
	want := "Bridge workbench (pi.local.) at 10.0.0.2:7420"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBridge_GetMetadata(t *testing.T) {
	b := &Bridge{Metadata: map[string]string{TXTSerial: "/dev/ttyUSB0"}}
	if got := b.SerialPort(); got != "/dev/ttyUSB0" {
		t.Errorf("SerialPort() = %q", got)
	}
	if got := b.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	var empty Bridge
	if got := empty.GetMetadata(TXTSerial); got != "" {
		t.Errorf("GetMetadata on nil map = %q, want empty", got)
	}
}
