package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/discovery"
	"github.com/muurk/orblink/internal/logging"
	"github.com/muurk/orblink/internal/stream"
	"github.com/muurk/orblink/internal/version"
)

const (
	// Time allowed to write a message to the client
	writeWait = 5 * time.Second

	// Maximum message size accepted from the client
	maxMessageSize = 64 * 1024
)

// Port is the modem the bridge shares.
type Port interface {
	io.ReadWriter
	ResetInput() error
}

// Config holds the bridge configuration
type Config struct {
	Host string
	Port int

	// Path serves the modem websocket.
	// Default: /modem
	Path string

	// Instance is the mDNS instance name. Empty disables advertising.
	Instance string

	// SerialName is published in the TXT record for display only.
	SerialName string

	// PollInterval is the sleep between empty reads of the modem.
	// Default: 10ms
	PollInterval time.Duration
}

// Server shares one modem with one websocket client at a time.
type Server struct {
	config   Config
	port     Port
	logger   *zap.Logger
	upgrader websocket.Upgrader

	// portMu orders modem reads against input resets so that no byte read
	// before a reset is delivered after its acknowledgement.
	portMu sync.Mutex

	mu         sync.Mutex
	client     string
	conn       *websocket.Conn
	listener   net.Listener
	httpServer *http.Server
	mdns       *zeroconf.Server
	wg         sync.WaitGroup
}

// New creates a bridge for port.
func New(config Config, port Port, logger *zap.Logger) *Server {
	if config.Path == "" {
		config.Path = discovery.DefaultPath
	}
	if config.Port == 0 {
		config.Port = discovery.DefaultPort
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config: config,
		port:   port,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP handler serving the modem websocket and a
// health endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.serveModem)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

// Start listens, advertises over mDNS and serves until SIGINT/SIGTERM.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	s.logger.Info("bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.Path),
		zap.String("serial", s.config.SerialName),
	)

	if s.config.Instance != "" {
		if err := s.advertise(listener.Addr()); err != nil {
			s.logger.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		s.logger.Info("shutdown signal received, stopping bridge")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise(addr net.Addr) error {
	port := s.config.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	text := []string{
		discovery.TXTPath + "=" + s.config.Path,
		discovery.TXTVersion + "=" + version.Version,
	}
	if s.config.SerialName != "" {
		text = append(text, discovery.TXTSerial+"="+s.config.SerialName)
	}

	server, err := zeroconf.Register(s.config.Instance, discovery.ServiceType, discovery.ServiceDomain, port, text, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	s.mu.Lock()
	s.mdns = server
	s.mu.Unlock()

	s.logger.Info("advertising bridge",
		zap.String("instance", s.config.Instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return nil
}

// Shutdown stops advertising, closes the active client and waits for it
// to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down bridge")

	s.mu.Lock()
	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	if s.conn != nil {
		s.logger.Info("closing active client", zap.String("remote_addr", s.client))
		_ = s.conn.Close()
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("bridge stopped")
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		s.logger.Warn("shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()
	return err
}

// ActiveClient returns the address of the connected client, if any.
func (s *Server) ActiveClient() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if client := s.ActiveClient(); client != "" {
		fmt.Fprintf(w, "busy %s\n", client)
		return
	}
	fmt.Fprintln(w, "idle")
}

func (s *Server) serveModem(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	s.mu.Lock()
	if s.client != "" {
		active := s.client
		s.mu.Unlock()
		s.logger.Warn("rejecting client, bridge busy",
			zap.String("remote_addr", remoteAddr),
			zap.String("active", active),
		)
		http.Error(w, "bridge busy", http.StatusConflict)
		return
	}
	s.client = remoteAddr
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.client = ""
		s.conn = nil
		s.mu.Unlock()
		s.wg.Done()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Info("client connected", zap.String("remote_addr", remoteAddr))
	newSession(conn, s, remoteAddr).run()
	s.logger.Info("client disconnected", zap.String("remote_addr", remoteAddr))
}

// session pumps bytes between one websocket client and the modem.
type session struct {
	conn       *websocket.Conn
	server     *Server
	remoteAddr string
	logger     *zap.Logger

	writeMu sync.Mutex
	done    chan struct{}
}

func newSession(conn *websocket.Conn, server *Server, remoteAddr string) *session {
	return &session{
		conn:       conn,
		server:     server,
		remoteAddr: remoteAddr,
		logger:     server.logger.With(zap.String("remote_addr", remoteAddr)),
		done:       make(chan struct{}),
	}
}

func (c *session) run() {
	defer func() { _ = c.conn.Close() }()

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		c.pumpModem()
	}()

	c.readClient()
	close(c.done)
	<-pumped
}

// readClient forwards binary messages to the modem and handles control
// messages until the client goes away.
func (c *session) readClient() {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("client read ended", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.logger.Debug("client -> modem", logging.RawFields(string(data))...)
			if _, err := c.server.port.Write(data); err != nil {
				c.logger.Error("modem write failed", zap.Error(err))
				return
			}

		case websocket.TextMessage:
			msg, err := stream.DecodeControl(data)
			if err != nil {
				c.logger.Warn("ignoring client message", zap.Error(err))
				continue
			}
			if err := c.handleControl(msg); err != nil {
				c.logger.Error("control message failed", zap.String("op", msg.Op), zap.Error(err))
				return
			}
		}
	}
}

func (c *session) handleControl(msg stream.ControlMessage) error {
	switch msg.Op {
	case stream.OpReset:
		c.server.portMu.Lock()
		defer c.server.portMu.Unlock()

		reply := stream.ControlMessage{Op: stream.OpResetAck}
		if err := c.server.port.ResetInput(); err != nil {
			reply.Error = err.Error()
		}
		data, err := stream.EncodeControl(reply)
		if err != nil {
			return err
		}
		return c.write(websocket.TextMessage, data)

	default:
		c.logger.Debug("unhandled control message", zap.String("op", msg.Op))
		return nil
	}
}

// pumpModem forwards modem output to the client until the session ends.
func (c *session) pumpModem() {
	buf := make([]byte, 1024)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.server.portMu.Lock()
		n, err := c.server.port.Read(buf)
		if n > 0 {
			c.logger.Debug("modem -> client", logging.RawFields(string(buf[:n]))...)
			if werr := c.write(websocket.BinaryMessage, buf[:n]); werr != nil {
				c.server.portMu.Unlock()
				c.logger.Debug("client write failed", zap.Error(werr))
				return
			}
		}
		c.server.portMu.Unlock()

		if err != nil && err != io.EOF {
			c.logger.Error("modem read failed", zap.Error(err))
			_ = c.conn.Close()
			return
		}
		if n == 0 {
			time.Sleep(c.server.config.PollInterval)
		}
	}
}

func (c *session) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
