// Orblink-bridge shares a locally attached ESP-AT modem over the network.
//
// It opens the serial port and serves it to one websocket client at a
// time, advertising itself over mDNS so that 'orblink scan' can find it.
//
// Usage:
//
//	orblink-bridge serve --serial /dev/ttyUSB0 [flags]
//
// See 'orblink-bridge serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/bridge"
	"github.com/muurk/orblink/internal/discovery"
	"github.com/muurk/orblink/internal/logging"
	"github.com/muurk/orblink/internal/stream"
	"github.com/muurk/orblink/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orblink-bridge",
	Short: "Share an ESP-AT modem over the network",
	Long: `Serve a serial-attached ESP-AT modem to one orblink client at a time.

Modem bytes travel as binary websocket frames. Clients find the bridge
through mDNS (` + discovery.ServiceType + `) or connect with
'orblink --bridge ws://host:port/modem'.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	serialPort string
	baudRate   int
	host       string
	port       int
	path       string
	instance   string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge",
	Example: `  # Share /dev/ttyUSB0 and advertise it as "workbench"
  orblink-bridge serve --serial /dev/ttyUSB0 --name workbench

  # Listen on localhost only, without mDNS
  orblink-bridge serve --serial /dev/ttyACM0 --host 127.0.0.1 --name ""`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serialPort, "serial", "", "Serial port of the modem (required)")
	flags.IntVar(&baudRate, "baud", 115200, "Serial baud rate")
	flags.StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	flags.IntVar(&port, "port", discovery.DefaultPort, "Listen port")
	flags.StringVar(&path, "path", discovery.DefaultPath, "Websocket path")
	flags.StringVar(&instance, "name", defaultInstance(), "mDNS instance name (empty disables advertising)")
	flags.StringVar(&logLevel, "log-level", "errors", "Log level (silent, errors, verbose)")
	_ = serveCmd.MarkFlagRequired("serial")
}

func defaultInstance() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "orblink"
	}
	return "orblink-" + hostname
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	logger := logging.GetLogger()

	cfg := stream.DefaultSerialConfig(serialPort)
	cfg.BaudRate = baudRate
	modem, err := stream.OpenSerial(cfg, logger.Named("serial"))
	if err != nil {
		return err
	}
	defer func() {
		if err := modem.Close(); err != nil {
			logger.Warn("failed to close serial port", zap.Error(err))
		}
	}()

	srv := bridge.New(bridge.Config{
		Host:       host,
		Port:       port,
		Path:       path,
		Instance:   instance,
		SerialName: modem.Name(),
	}, modem, logger.Named("bridge"))

	fmt.Printf("Sharing %s on port %d%s\n", modem.Name(), port, path)
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orblink-bridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
