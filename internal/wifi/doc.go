// Package wifi manages the modem's WiFi station: probing the modem,
// selecting station mode, joining a network and querying status.
//
// The tracked state only moves forward on success:
//
//	Disconnected -> Responsive -> StationMode -> Associated
//
// A status query reporting code 2 or 3 means associated. Any other code, or a
// failed query, means not connected.
package wifi
