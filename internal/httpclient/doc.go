// Package httpclient performs minimal HTTP/1.1 requests over the modem's
// single socket.
//
// Every request opens the socket, sends the request in one payload, waits
// for the response and closes the socket again, whatever happened:
//
//	client := httpclient.NewClient(session, httpclient.DefaultConfig(), logger)
//	resp, err := client.Get("http://example.com/status")
//	if err != nil {
//	    // resp.StatusCode is 0 and resp.Body says what went wrong
//	}
//
// Requests always go to port 80 in plaintext unless the URL names another
// port. An https URL is accepted but still sent in plaintext, with a warning.
package httpclient
