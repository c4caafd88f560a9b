// Orblink drives an ESP-AT WiFi modem over a serial line.
//
// It joins the modem to an access point, reports its status and performs
// plain HTTP requests through the modem's single TCP socket. The modem can
// be attached locally or shared over the network by orblink-bridge.
//
// Usage:
//
//	orblink [command] [flags]
//
// See 'orblink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/orblink/internal/logging"
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

// Global flags
var (
	configPath     string
	serialPort     string
	baudRate       int
	bridgeURL      string
	logLevel       string
	transcriptPath string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "orblink",
	Short: "ESP-AT WiFi modem client",
	Long: `A command-line client for ESP-AT WiFi modems.

Joins the modem to a network, reports its status and sends HTTP requests
through it. The modem is reached on a local serial port (--port) or through
an orblink-bridge (--bridge, see 'orblink scan').

Settings are read from the config file and ORBLINK_* environment variables;
flags take precedence. The WiFi password is read from ORBLINK_WIFI_PASSWORD
or prompted for and is never saved.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/orblink/config.yaml)")
	flags.StringVar(&serialPort, "port", "", "Serial port of the modem (e.g. /dev/ttyUSB0)")
	flags.IntVar(&baudRate, "baud", 115200, "Serial baud rate")
	flags.StringVar(&bridgeURL, "bridge", "", "orblink-bridge URL (ws://host:port/modem), overrides --port")
	flags.StringVar(&logLevel, "log-level", "", "Log level (silent, errors, verbose; default errors)")
	flags.StringVar(&transcriptPath, "transcript", "", "Append every modem exchange as JSON lines to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show raw modem output with results")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orblink %s (commit: %s, %s)\n", version.Version, version.Commit, version.Platform())
	},
}
