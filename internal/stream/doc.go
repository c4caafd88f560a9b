// Package stream provides the byte streams a modem can be reached over.
//
// Serial talks to a UART on this machine using go.bug.st/serial. Remote
// talks to an orblink-bridge over a websocket: modem bytes travel as binary
// messages and input resets as JSON text messages.
//
// Both satisfy atcmd.Stream: Read never blocks for long and may return no
// bytes, and ResetInput discards input that arrived but was not yet read.
package stream
