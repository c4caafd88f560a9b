// Package socket manages the modem's single TCP connection.
//
// A Session moves Closed -> Opening -> Open. Send announces the payload
// size, waits for the modem to accept it and then writes the bytes.
// AwaitResponse treats the transfer as complete once both a +IPD data
// marker and the CLOSED marker have been seen.
//
//	sess := socket.NewSession(exec, socket.DefaultConfig(), logger)
//	if err := sess.Open("example.com", 80, 0); err != nil {
//	    sess.Close()
//	    return err
//	}
//	defer sess.Close()
package socket
