// Package bridge shares a local modem over a websocket so that orblink can
// drive it from another machine.
//
// One client is served at a time; a second client is refused with 409
// Conflict. Modem bytes travel as binary messages in both directions. Text
// messages carry JSON control operations; the only one is an input reset,
// which the bridge performs on the UART and acknowledges once every byte
// read before the reset has been forwarded.
//
// When an instance name is configured the bridge advertises itself as
// "_orblink._tcp" over mDNS so that `orblink scan` can find it.
package bridge
