package wifi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/atcmd"
)

// Modem replies that carry meaning beyond the OK/ERROR sentinel.
const (
	gotIPLine     = "WIFI GOT IP"
	statusPrefix  = "STATUS:"
	stationPrefix = "+CIFSR:STAIP,"
	noAddress     = "0.0.0.0"
)

// Status codes of the status query that mean the station is associated.
const (
	StatusAssociated       = 2
	StatusAssociatedWithIP = 3
)

// ErrNoAddress is returned when the modem reports no station address.
var ErrNoAddress = errors.New("wifi: modem has no station address")

// State is the connectivity state tracked by a Station.
type State int

const (
	StateDisconnected State = iota
	StateResponsive
	StateStationMode
	StateAssociated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateResponsive:
		return "responsive"
	case StateStationMode:
		return "station-mode"
	case StateAssociated:
		return "associated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds per-command timeouts for a Station.
type Config struct {
	// CommandTimeout bounds probe, mode-set, status and address queries.
	// Default: 2s
	CommandTimeout time.Duration

	// JoinTimeout bounds each attempt to join a network.
	// Default: 15s
	JoinTimeout time.Duration
}

// DefaultConfig returns the standard Station timeouts.
func DefaultConfig() Config {
	return Config{
		CommandTimeout: atcmd.DefaultTimeout,
		JoinTimeout:    15 * time.Second,
	}
}

// Station brings the modem onto a WiFi network and reports its status.
type Station struct {
	exec   *atcmd.Executor
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

// NewStation returns a Station in the Disconnected state.
func NewStation(exec *atcmd.Executor, config Config, logger *zap.Logger) *Station {
	defaults := DefaultConfig()
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = defaults.JoinTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Station{
		exec:   exec,
		config: config,
		logger: logger,
		state:  StateDisconnected,
	}
}

// State returns the last known connectivity state.
func (s *Station) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Station) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.logger.Info("station state changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", next),
		)
	}
}

// Probe checks that the modem answers the bare AT command.
func (s *Station) Probe() error {
	result := s.exec.Run(atcmd.CmdProbe, s.config.CommandTimeout)
	if !result.OK {
		s.setState(StateDisconnected)
		return fmt.Errorf("modem not responding: %w", result.Err)
	}
	if s.State() < StateResponsive {
		s.setState(StateResponsive)
	}
	return nil
}

// SetStationMode switches the radio to client (station) mode.
func (s *Station) SetStationMode() error {
	result := s.exec.Run(atcmd.CmdStationMode, s.config.CommandTimeout)
	if !result.OK {
		return fmt.Errorf("failed to set station mode: %w", result.Err)
	}
	if s.State() < StateStationMode {
		s.setState(StateStationMode)
	}
	return nil
}

// Join associates with the network. An unsolicited WIFI GOT IP line counts
// as success even when the OK sentinel was lost, and ends the attempt so
// that an established association is not retried.
func (s *Station) Join(ssid, password string) error {
	cmd := atcmd.NewCommand(atcmd.JoinCommand(ssid, password), s.config.JoinTimeout).Until(gotIP)
	result := s.exec.Execute(cmd)
	if result.OK {
		s.setState(StateAssociated)
		s.logger.Info("joined network", zap.String("ssid", ssid), zap.Int("attempts", result.Attempts))
		return nil
	}
	if s.State() == StateAssociated {
		s.setState(StateStationMode)
	}
	return fmt.Errorf("failed to join %q: %w", ssid, result.Err)
}

func gotIP(resp *atcmd.Response) bool {
	return resp.HasLine(gotIPLine)
}

// Connect probes the modem, selects station mode and joins the network,
// stopping at the first failed step.
func (s *Station) Connect(ssid, password string) error {
	if err := s.Probe(); err != nil {
		return err
	}
	if err := s.SetStationMode(); err != nil {
		return err
	}
	return s.Join(ssid, password)
}

// IsConnected queries the connection status. Only status codes 2 and 3
// count as connected; any other code or a failed query is false.
func (s *Station) IsConnected() bool {
	result := s.exec.Run(atcmd.CmdStatus, s.config.CommandTimeout)
	if !result.OK {
		s.logger.Debug("status query failed", zap.Error(result.Err))
		return false
	}

	connected := false
	for _, line := range result.Response.Intermediate {
		rest, ok := strings.CutPrefix(line, statusPrefix)
		if !ok {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			continue
		}
		connected = code == StatusAssociated || code == StatusAssociatedWithIP
		break
	}

	switch {
	case connected:
		s.setState(StateAssociated)
	case s.State() == StateAssociated:
		s.setState(StateStationMode)
	}
	return connected
}

// LocalAddress returns the station IP address reported by the modem.
func (s *Station) LocalAddress() (string, error) {
	result := s.exec.Run(atcmd.CmdLocalAddress, s.config.CommandTimeout)
	if !result.OK {
		return "", fmt.Errorf("address query failed: %w", result.Err)
	}
	line, ok := result.Response.LineWithPrefix(stationPrefix)
	if !ok {
		return "", ErrNoAddress
	}
	addr := strings.Trim(strings.TrimPrefix(line, stationPrefix), `" `)
	if addr == "" || addr == noAddress {
		return "", ErrNoAddress
	}
	return addr, nil
}

// FirmwareVersion returns the version lines reported by the modem.
func (s *Station) FirmwareVersion() ([]string, error) {
	result := s.exec.Run(atcmd.CmdFirmwareVersion, s.config.CommandTimeout)
	if !result.OK {
		return nil, fmt.Errorf("version query failed: %w", result.Err)
	}
	return result.Response.Intermediate, nil
}

// SetSingleConnection restricts the modem to one socket at a time.
func (s *Station) SetSingleConnection() error {
	result := s.exec.Run(atcmd.CmdSingleConn, s.config.CommandTimeout)
	if !result.OK {
		return fmt.Errorf("failed to select single connection mode: %w", result.Err)
	}
	return nil
}
