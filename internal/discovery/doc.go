// Package discovery finds orblink bridges on the local network with mDNS.
//
// Bridges advertise the "_orblink._tcp" service type. The TXT record carries
// the websocket path, the shared serial device and the bridge version:
//
//	path=/modem
//	serial=/dev/ttyUSB0
//	version=1.0.0
//
// # Usage Example
//
//	bridges, err := discovery.Scan(5 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, b := range bridges {
//	    fmt.Printf("%s -> %s\n", b.Instance, b.URL())
//	}
//
// Discovery needs multicast on the local segment and will find nothing
// across routers or on networks that filter mDNS.
package discovery
