// Package atcmd drives an ESP-AT style modem over a byte stream.
//
// It turns an asynchronous, partially buffered, line-oriented stream into a
// synchronous command/response primitive with bounded retries, and parses
// the modem's response text into a structured form.
//
// # Architecture
//
//	┌─────────────────┐
//	│ Command         │  Text, timeout, derived attempt count
//	└────────┬────────┘
//	         │
//	         v
//	┌─────────────────┐
//	│ Executor        │  Reset input, write, poll for OK/ERROR, back off
//	└────────┬────────┘
//	         │
//	         v
//	┌─────────────────┐
//	│ Parse           │  Echo, intermediate lines, status, +IPD payload
//	└────────┬────────┘
//	         │
//	         v
//	┌─────────────────┐
//	│ Result          │  OK, raw capture, parsed response, typed error
//	└─────────────────┘
//
// # Retry Policy
//
// Only the bare probe AT and commands starting with AT+CWMODE, AT+CWJAP,
// AT+CIPSTART or AT+CIPSEND are retried (three attempts). Everything else,
// AT+CIPCLOSE in particular, gets one attempt. The delay after failed
// attempt i is min(800ms, 150ms*2^(i-1)).
//
// # Usage
//
//	exec, err := atcmd.NewExecutor(port, atcmd.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	result := exec.Run(atcmd.CmdProbe, 2*time.Second)
//	if !result.OK {
//	    return result.Err
//	}
//
// # Thread Safety
//
// An Executor serialises every exchange on an internal mutex. At most one
// command is in flight at any time.
package atcmd
