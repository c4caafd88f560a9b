//go:build ignore

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/muurk/orblink/internal/atcmd"
)

// commandStats aggregates the exchanges of one command verb.
type commandStats struct {
	Exchanges int
	Failures  int
	Retries   int
	Total     time.Duration
	Slowest   time.Duration
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/transcript-report.go <transcript.jsonl>")
		fmt.Println("Example: go run tools/transcript-report.go ~/orblink-session.jsonl")
		os.Exit(1)
	}

	filename := os.Args[1]
	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	stats := make(map[string]*commandStats)
	mismatches := 0
	total := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}

		var ex atcmd.Exchange
		if err := json.Unmarshal(scanner.Bytes(), &ex); err != nil {
			fmt.Printf("Error parsing line %d: %v\n", line, err)
			continue
		}
		total++

		verb := commandVerb(ex.Command)
		s, ok := stats[verb]
		if !ok {
			s = &commandStats{}
			stats[verb] = s
		}
		s.Exchanges++
		s.Total += ex.Duration
		s.Slowest = max(s.Slowest, ex.Duration)
		if !ex.OK {
			s.Failures++
		}
		if ex.Attempt > 1 {
			s.Retries++
		}

		// Re-parse the capture and compare with what was recorded
		resp := atcmd.Parse(ex.Raw, ex.Command)
		if string(resp.Status) != ex.Status {
			mismatches++
			fmt.Printf("✗ line %d %s: recorded status %q, parser says %q\n", line, ex.Command, ex.Status, resp.Status)
			fmt.Printf("  raw: %q\n", ex.Raw)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== orblink transcript report ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Exchanges: %d\n\n", total)

	verbs := make([]string, 0, len(stats))
	for verb := range stats {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)

	fmt.Printf("%-16s %6s %6s %6s %10s %10s\n", "COMMAND", "COUNT", "FAIL", "RETRY", "AVG", "MAX")
	for _, verb := range verbs {
		s := stats[verb]
		avg := s.Total / time.Duration(s.Exchanges)
		fmt.Printf("%-16s %6d %6d %6d %10s %10s\n", verb, s.Exchanges, s.Failures, s.Retries,
			avg.Round(time.Millisecond), s.Slowest.Round(time.Millisecond))
	}

	fmt.Println()
	if mismatches > 0 {
		fmt.Printf("✗ %d exchange(s) parse differently than recorded\n", mismatches)
		os.Exit(1)
	}
	fmt.Println("✓ every recorded status matches the parser")
}

// commandVerb strips arguments: AT+CWJAP="x","***" becomes AT+CWJAP.
func commandVerb(command string) string {
	if i := strings.IndexAny(command, "=?"); i > 0 {
		return command[:i]
	}
	return command
}
