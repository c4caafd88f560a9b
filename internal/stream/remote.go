package stream

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the bridge
	writeWait = 5 * time.Second

	// Time allowed for the bridge to acknowledge an input reset
	resetWait = time.Second

	// Time allowed to complete the websocket handshake
	handshakeWait = 10 * time.Second
)

var (
	// ErrBridgeClosed is returned once the bridge connection has gone away.
	ErrBridgeClosed = errors.New("bridge connection closed")

	// ErrBridgeBusy is returned when the bridge is already serving a client.
	ErrBridgeBusy = errors.New("bridge is serving another client")
)

// Remote is a modem stream carried over a websocket to an orblink-bridge.
//
// A background reader buffers inbound modem bytes so that Read never blocks.
type Remote struct {
	conn   *websocket.Conn
	url    string
	logger *zap.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	buf    []byte
	err    error
	acks   chan struct{}
	closed chan struct{}
}

// DialBridge connects to the bridge at url (ws://host:port/modem).
func DialBridge(url string, logger *zap.Logger) (*Remote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeWait}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 409 {
			return nil, fmt.Errorf("failed to connect to bridge %s: %w", url, ErrBridgeBusy)
		}
		return nil, fmt.Errorf("failed to connect to bridge %s: %w", url, err)
	}

	r := &Remote{
		conn:   conn,
		url:    url,
		logger: logger,
		acks:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	go r.readLoop()

	logger.Info("connected to bridge", zap.String("url", url))
	return r, nil
}

func (r *Remote) readLoop() {
	defer close(r.closed)

	for {
		messageType, data, err := r.conn.ReadMessage()
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Debug("bridge connection closed", zap.String("url", r.url))
			} else {
				r.logger.Warn("bridge read failed", zap.String("url", r.url), zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			r.mu.Lock()
			r.buf = append(r.buf, data...)
			r.mu.Unlock()

		case websocket.TextMessage:
			msg, err := DecodeControl(data)
			if err != nil {
				r.logger.Warn("ignoring bridge message", zap.Error(err))
				continue
			}
			r.handleControl(msg)
		}
	}
}

func (r *Remote) handleControl(msg ControlMessage) {
	switch msg.Op {
	case OpResetAck:
		// Everything before the ack predates the reset.
		r.mu.Lock()
		r.buf = nil
		r.mu.Unlock()
		select {
		case r.acks <- struct{}{}:
		default:
		}
	default:
		r.logger.Debug("unhandled bridge control message", zap.String("op", msg.Op), zap.String("error", msg.Error))
	}
}

// Read copies buffered modem bytes into p without blocking.
func (r *Remote) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buf) == 0 {
		if r.err != nil {
			return 0, ErrBridgeClosed
		}
		return 0, nil
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Write sends p to the modem as one binary message.
func (r *Remote) Write(p []byte) (int, error) {
	if err := r.send(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInput asks the bridge to flush the UART input and waits briefly for
// the acknowledgement. Local buffered bytes are discarded either way.
func (r *Remote) ResetInput() error {
	select {
	case <-r.acks:
	default:
	}

	data, err := EncodeControl(ControlMessage{Op: OpReset})
	if err != nil {
		return err
	}
	if err := r.send(websocket.TextMessage, data); err != nil {
		return err
	}

	select {
	case <-r.acks:
		return nil
	case <-r.closed:
		return ErrBridgeClosed
	case <-time.After(resetWait):
		r.mu.Lock()
		r.buf = nil
		r.mu.Unlock()
		r.logger.Debug("bridge did not acknowledge reset", zap.String("url", r.url))
		return nil
	}
}

func (r *Remote) send(messageType int, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	select {
	case <-r.closed:
		return ErrBridgeClosed
	default:
	}

	if err := r.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := r.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write to bridge: %w", err)
	}
	return nil
}

// Close says goodbye to the bridge and closes the connection.
func (r *Remote) Close() error {
	r.writeMu.Lock()
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	r.writeMu.Unlock()
	return r.conn.Close()
}
