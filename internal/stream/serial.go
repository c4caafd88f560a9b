package stream

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialConfig describes a local UART connection to the modem.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyUSB0 or COM3.
	Port string

	// BaudRate of the modem UART.
	// Default: 115200
	BaudRate int

	// ReadTimeout bounds a single Read so that polling stays responsive.
	// Default: 10ms
	ReadTimeout time.Duration
}

// DefaultSerialConfig returns the ESP-AT factory UART settings for port.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:        port,
		BaudRate:    115200,
		ReadTimeout: 10 * time.Millisecond,
	}
}

// Serial is a modem stream over a local serial port.
type Serial struct {
	port   serial.Port
	name   string
	logger *zap.Logger
}

// OpenSerial opens the UART described by config at 8N1.
func OpenSerial(config SerialConfig, logger *zap.Logger) (*Serial, error) {
	if config.Port == "" {
		return nil, errors.New("no serial port given")
	}
	defaults := DefaultSerialConfig(config.Port)
	if config.BaudRate <= 0 {
		config.BaudRate = defaults.BaudRate
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", config.Port, err)
	}
	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", config.Port, err)
	}

	logger.Info("serial port opened",
		zap.String("port", config.Port),
		zap.Int("baud", config.BaudRate),
	)
	return &Serial{port: port, name: config.Port, logger: logger}, nil
}

// Read returns whatever arrived within the read timeout, possibly nothing.
func (s *Serial) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// ResetInput discards received bytes not yet read.
func (s *Serial) ResetInput() error {
	return s.port.ResetInputBuffer()
}

// Name returns the device path.
func (s *Serial) Name() string {
	return s.name
}

func (s *Serial) Close() error {
	s.logger.Debug("closing serial port", zap.String("port", s.name))
	return s.port.Close()
}

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
