package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/orblink/internal/atcmd"
	"github.com/muurk/orblink/internal/discovery"
	"github.com/muurk/orblink/internal/httpclient"
	"github.com/muurk/orblink/internal/stream"
	"github.com/muurk/orblink/internal/ui"
	"github.com/muurk/orblink/internal/urls"
)

// Prompts go to stderr so that stdout stays clean for response bodies.
var promptOutput = os.Stderr

var modemTroubleshooting = []string{
	"Check the modem is powered and wired TX to RX",
	"Confirm the baud rate matches the firmware (--baud)",
	"Run with --verbose to see the raw modem output",
	"Command reference: " + urls.BasicCommands,
}

// Command flags
var (
	joinSSID     string
	saveSSID     bool
	requestHeads headerList
	postData     string
	postFile     string
	contentType  string
	showRaw      bool
	pingURL      string
	rawTimeout   time.Duration
	rawAttempts  int
	scanTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(portsCmd)

	connectCmd.Flags().StringVar(&joinSSID, "ssid", "", "Network to join (default: network.ssid from config)")
	connectCmd.Flags().BoolVar(&saveSSID, "save", false, "Save the SSID to the config file after joining")

	for _, cmd := range []*cobra.Command{getCmd, postCmd} {
		cmd.Flags().VarP(&requestHeads, "header", "H", `Extra request header "Name: Value" (repeatable)`)
		cmd.Flags().BoolVar(&showRaw, "raw", false, "Print the raw socket traffic instead of the body")
	}
	postCmd.Flags().StringVarP(&postData, "data", "d", "", "Request body")
	postCmd.Flags().StringVar(&postFile, "data-file", "", "Read the request body from a file")
	postCmd.Flags().StringVar(&contentType, "content-type", httpclient.DefaultContentType, "Content-Type of the body")

	pingCmd.Flags().StringVar(&pingURL, "url", "", "URL to fetch (default: ping_url from config)")

	rawCmd.Flags().DurationVar(&rawTimeout, "timeout", atcmd.DefaultTimeout, "Wait for the OK/ERROR sentinel per attempt")
	rawCmd.Flags().IntVar(&rawAttempts, "attempts", 0, "Number of attempts (default: derived from the command)")

	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for bridges")
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the modem responds",
	Long: `Send AT to the modem and read its firmware version.

The probe is retried with backoff, so a modem that is still booting
usually answers on a later attempt.`,
	Example: `  orblink probe --port /dev/ttyUSB0
  orblink probe --bridge ws://pi.local:7420/modem`,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	m, err := openModem(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:           "Probe Modem",
		Command:         "orblink probe",
		Params:          map[string]string{"Device": m.device},
		StepNames:       []string{"Probe modem", "Read firmware version"},
		Troubleshooting: modemTroubleshooting,
		Verbose:         verbose,
	})

	return runner.Run(func(onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, ui.StepRunning, "")
		if err := m.station.Probe(); err != nil {
			onStep(1, ui.StepFailed, "")
			runner.SetRawOutput(lastRaw(err))
			return nil, err
		}
		onStep(1, ui.StepComplete, "")

		onStep(2, ui.StepRunning, "")
		lines, err := m.station.FirmwareVersion()
		if err != nil {
			// Older firmware may reject AT+GMR; the modem still answered.
			onStep(2, ui.StepSkipped, "not supported")
			return map[string]string{"State": m.station.State().String()}, nil
		}
		onStep(2, ui.StepComplete, "")

		details := map[string]string{"State": m.station.State().String()}
		if len(lines) > 0 {
			details["Firmware"] = lines[0]
		}
		return details, nil
	})
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join the modem to a WiFi network",
	Long: `Probe the modem, switch it to station mode and join a network.

The SSID comes from --ssid or the config file. The password is read from
ORBLINK_WIFI_PASSWORD or prompted for; it is never written to disk.`,
	Example: `  # Join the network from the config file
  orblink connect

  # Join another network and remember its name
  orblink connect --ssid office --save`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	m, err := openModem(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	ssid := m.profile.Network.SSID
	if joinSSID != "" {
		ssid = joinSSID
		m.profile.Network.SSID = joinSSID
	}
	if ssid == "" {
		return errors.New("no SSID given: pass --ssid or set network.ssid in the config file")
	}
	password, err := m.profile.Password(promptOutput)
	if err != nil {
		return err
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Join Network",
		Command: "orblink connect",
		Params: map[string]string{
			"Device": m.device,
			"SSID":   ssid,
		},
		StepNames: []string{"Probe modem", "Set station mode", "Join network", "Read address"},
		Troubleshooting: append([]string{
			"Check the SSID and password",
			"Move the modem closer to the access point",
			"Join errors are listed at " + urls.WiFiCommands,
		}, modemTroubleshooting...),
		Verbose: verbose,
	})

	err = runner.Run(func(onStep ui.StepCallback) (map[string]string, error) {
		steps := []func() error{
			m.station.Probe,
			m.station.SetStationMode,
			func() error {
				return ui.Spin(promptOutput, "joining "+ssid, func() error {
					return m.station.Join(ssid, password)
				})
			},
		}
		for i, step := range steps {
			onStep(i+1, ui.StepRunning, "")
			if err := step(); err != nil {
				onStep(i+1, ui.StepFailed, "")
				runner.SetRawOutput(lastRaw(err))
				return nil, err
			}
			onStep(i+1, ui.StepComplete, "")
		}

		details := map[string]string{"State": m.station.State().String()}
		onStep(4, ui.StepRunning, "")
		addr, err := m.station.LocalAddress()
		if err != nil {
			onStep(4, ui.StepSkipped, "no address yet")
			return details, nil
		}
		onStep(4, ui.StepComplete, addr)
		details["IP"] = addr
		return details, nil
	})
	if err != nil {
		return err
	}

	if saveSSID {
		return m.profile.Save(configPath)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the modem is connected",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openModem(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		if !m.station.IsConnected() {
			fmt.Println(ui.NewWarningResult("Not connected", map[string]string{"Device": m.device}).Render())
			return nil
		}

		details := map[string]string{"Device": m.device}
		if addr, err := m.station.LocalAddress(); err == nil {
			details["IP"] = addr
		}
		fmt.Println(ui.NewSuccessResult("Connected", details).Render())
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Send an HTTP GET through the modem",
	Long: `Fetch a URL through the modem's TCP socket.

Only plain HTTP is spoken; https:// URLs are sent unencrypted to port 80.
The status code goes to stderr and the body to stdout.`,
	Example: `  orblink get http://example.com/
  orblink get http://192.168.1.10:8080/api -H "Accept: application/json"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openModem(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		var resp *httpclient.Response
		err = ui.Spin(promptOutput, "GET "+args[0], func() error {
			var reqErr error
			resp, reqErr = m.client.Get(args[0], requestHeads...)
			return reqErr
		})
		return printResponse(resp, err)
	},
}

var postCmd = &cobra.Command{
	Use:   "post <url>",
	Short: "Send an HTTP POST through the modem",
	Example: `  orblink post http://example.com/hook -d '{"ok":true}' --content-type application/json
  orblink post http://example.com/upload --data-file reading.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := []byte(postData)
		if postFile != "" {
			if postData != "" {
				return errors.New("use either --data or --data-file, not both")
			}
			var err error
			body, err = os.ReadFile(postFile)
			if err != nil {
				return fmt.Errorf("failed to read request body: %w", err)
			}
		}

		m, err := openModem(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		var resp *httpclient.Response
		err = ui.Spin(promptOutput, "POST "+args[0], func() error {
			var reqErr error
			resp, reqErr = m.client.Post(args[0], body, contentType, requestHeads...)
			return reqErr
		})
		return printResponse(resp, err)
	},
}

// printResponse writes the status to stderr and the body (or raw traffic) to stdout.
func printResponse(resp *httpclient.Response, err error) error {
	if resp == nil {
		return err
	}
	if showRaw {
		fmt.Println(ui.NewRawOutput(resp.Raw).SetTitle("Socket Traffic").Render())
	}
	if err != nil {
		if stage, ok := httpclient.FailedStage(err); ok {
			if stage != httpclient.StageReceive {
				fmt.Fprintf(promptOutput, "Socket commands: %s\n", urls.TCPIPCommands)
			}
			return fmt.Errorf("%s failed: %w", stage, err)
		}
		return err
	}
	fmt.Fprintf(promptOutput, "HTTP %d\n", resp.StatusCode)
	if !showRaw {
		fmt.Print(resp.Body)
		if !strings.HasSuffix(resp.Body, "\n") {
			fmt.Println()
		}
	}
	return nil
}

var rawCmd = &cobra.Command{
	Use:   "raw <command>",
	Short: "Send one AT command and show the parsed response",
	Example: `  orblink raw AT+GMR
  orblink raw 'AT+CWLAP' --timeout 10s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openModem(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		result := m.exec.Execute(atcmd.Command{
			Text:     args[0],
			Timeout:  rawTimeout,
			Attempts: rawAttempts,
		})

		details := map[string]string{
			"Attempts": strconv.Itoa(result.Attempts),
			"Duration": result.Duration.Round(time.Millisecond).String(),
			"Status":   statusName(result.Response.Status),
		}
		if result.Response.Echoed {
			details["Echo"] = result.Response.Echo
		}
		for i, line := range result.Response.Intermediate {
			details[fmt.Sprintf("Line %02d", i+1)] = line
		}
		if result.Response.Payload != "" {
			details["Payload"] = strconv.Quote(result.Response.Payload)
		}

		var box *ui.Result
		if result.OK {
			box = ui.NewSuccessResult(result.Command, details)
		} else {
			box = ui.NewFailureResult(result.Command, result.Err, nil)
			box.Details = details
		}
		fmt.Println(box.Render())
		if verbose || !result.OK {
			fmt.Println(ui.NewRawOutput(result.Raw).Render())
		}
		return result.Err
	},
}

func statusName(s atcmd.Status) string {
	if s == atcmd.StatusNone {
		return "none"
	}
	return string(s)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check internet reachability through the modem",
	Long: `Join the configured network if needed, then GET the ping URL.

Any status from 200 to 499 counts as reachable: the request made it to a
server and back. Other outcomes exit with an error.`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	m, err := openModem(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	url := m.profile.PingURL
	if pingURL != "" {
		url = pingURL
	}
	if url == "" {
		return errors.New("no ping URL: pass --url or set ping_url in the config file")
	}

	if err := m.ensureConnected(); err != nil {
		fmt.Println(ui.NewFailureResult("WiFi not connected", err, modemTroubleshooting).Render())
		return err
	}

	var resp *httpclient.Response
	err = ui.Spin(promptOutput, "GET "+url, func() error {
		var reqErr error
		resp, reqErr = m.client.Get(url)
		return reqErr
	})

	details := map[string]string{"URL": url}
	if resp != nil && resp.StatusCode > 0 {
		details["Status"] = strconv.Itoa(resp.StatusCode)
	}
	if err == nil && reachable(resp.StatusCode) {
		fmt.Println(ui.NewSuccessResult("HTTP ping ok", details).Render())
		return nil
	}
	if err == nil {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	box := ui.NewFailureResult("HTTP ping failed", err, nil)
	box.Details = details
	fmt.Println(box.Render())
	return err
}

// reachable reports whether an HTTP status shows the server was reached.
func reachable(code int) bool {
	return code >= 200 && code < 500
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find orblink bridges on the local network",
	Long: `Listen for orblink-bridge mDNS advertisements (` + discovery.ServiceType + `)
and list the bridges found with their --bridge URLs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadProfile(cmd); err != nil {
			return err
		}
		fmt.Printf("Scanning for bridges (timeout: %s)...\n\n", scanTimeout)

		bridges, err := discovery.Scan(scanTimeout)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(bridges) == 0 {
			fmt.Println("No bridges found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Ensure orblink-bridge is running with --name set")
			fmt.Println("  - Check that multicast DNS is allowed on this network")
			fmt.Println("  - Try increasing --timeout")
			return nil
		}

		fmt.Printf("Found %d bridge(s):\n\n", len(bridges))
		for i, b := range bridges {
			fmt.Printf("%d. %s\n", i+1, b.Instance)
			fmt.Printf("   URL:     %s\n", b.URL())
			if serial := b.SerialPort(); serial != "" {
				fmt.Printf("   Serial:  %s\n", serial)
			}
			if v := b.GetMetadata(discovery.TXTVersion); v != "" {
				fmt.Printf("   Version: %s\n", v)
			}
			fmt.Println()
		}
		fmt.Println("Use 'orblink probe --bridge <url>' to talk to a bridged modem")
		return nil
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List local serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := stream.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

// lastRaw pulls the partial capture out of a timeout for verbose display.
func lastRaw(err error) string {
	var te *atcmd.TimeoutError
	if errors.As(err, &te) {
		return te.Partial
	}
	var re *atcmd.RejectedError
	if errors.As(err, &re) {
		return strings.Join(re.Lines, "\n")
	}
	return ""
}
