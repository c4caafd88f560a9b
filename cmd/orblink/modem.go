package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/atcmd"
	"github.com/muurk/orblink/internal/config"
	"github.com/muurk/orblink/internal/httpclient"
	"github.com/muurk/orblink/internal/logging"
	"github.com/muurk/orblink/internal/socket"
	"github.com/muurk/orblink/internal/stream"
	"github.com/muurk/orblink/internal/wifi"
)

var errNoDevice = errors.New("no modem configured: pass --port or --bridge, or set device.port in the config file")

// modem bundles the layers built on one byte stream.
type modem struct {
	profile  *config.Profile
	logger   *zap.Logger
	device   string
	stream   io.Closer
	recorder *atcmd.Recorder
	exec     *atcmd.Executor
	station  *wifi.Station
	session  *socket.Session
	client   *httpclient.Client
}

// loadProfile reads the config file and applies explicitly set flags on top.
func loadProfile(cmd *cobra.Command) (*config.Profile, error) {
	profile, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		profile.Device.Port = serialPort
	}
	if flags.Changed("baud") {
		profile.Device.Baud = baudRate
	}
	if flags.Changed("bridge") {
		profile.Device.Bridge = bridgeURL
	}
	if flags.Changed("log-level") {
		profile.LogLevel = logLevel
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(profile.LogLevel); err != nil {
		return nil, err
	}
	return profile, nil
}

// openModem connects to the configured modem. The caller must Close it.
func openModem(cmd *cobra.Command) (*modem, error) {
	profile, err := loadProfile(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger()

	m := &modem{profile: profile, logger: logger}

	var s atcmd.Stream
	switch {
	case profile.Device.Bridge != "":
		remote, err := stream.DialBridge(profile.Device.Bridge, logger.Named("bridge"))
		if err != nil {
			return nil, err
		}
		s, m.stream, m.device = remote, remote, profile.Device.Bridge
	case profile.Device.Port != "":
		cfg := stream.DefaultSerialConfig(profile.Device.Port)
		cfg.BaudRate = profile.Device.Baud
		port, err := stream.OpenSerial(cfg, logger.Named("serial"))
		if err != nil {
			return nil, err
		}
		s, m.stream, m.device = port, port, port.Name()
	default:
		return nil, errNoDevice
	}

	var opts []atcmd.Option
	if transcriptPath != "" {
		m.recorder, err = atcmd.OpenRecorder(transcriptPath)
		if err != nil {
			m.Close()
			return nil, err
		}
		opts = append(opts, atcmd.WithRecorder(m.recorder))
	}

	m.exec, err = atcmd.NewExecutor(s, atcmd.DefaultConfig(), logger.Named("atcmd"), opts...)
	if err != nil {
		m.Close()
		return nil, err
	}

	t := profile.Timeouts
	m.station = wifi.NewStation(m.exec, wifi.Config{
		CommandTimeout: t.Command,
		JoinTimeout:    t.Join,
	}, logger.Named("wifi"))
	m.session = socket.NewSession(m.exec, socket.Config{
		OpenTimeout: t.Open,
	}, logger.Named("socket"))
	m.client = httpclient.NewClient(m.session, httpclient.Config{
		OpenTimeout: t.Open,
		GetWait:     t.Get,
		PostWait:    t.Post,
	}, logger.Named("http"))

	return m, nil
}

// Close releases the transcript and the stream.
func (m *modem) Close() {
	if m.recorder != nil {
		if err := m.recorder.Close(); err != nil {
			m.logger.Warn("failed to close transcript", zap.Error(err))
		}
	}
	if m.stream != nil {
		if err := m.stream.Close(); err != nil {
			m.logger.Warn("failed to close modem stream", zap.String("device", m.device), zap.Error(err))
		}
	}
}

// ensureConnected joins the configured network unless the modem already
// reports a connection.
func (m *modem) ensureConnected() error {
	if m.station.IsConnected() {
		return nil
	}
	if m.profile.Network.SSID == "" {
		return fmt.Errorf("modem is not connected and no SSID is configured (set network.ssid or ORBLINK_WIFI_SSID)")
	}
	password, err := m.profile.Password(promptOutput)
	if err != nil {
		return err
	}
	return m.station.Connect(m.profile.Network.SSID, password)
}
