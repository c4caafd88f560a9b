// Package urls provides centralized constants for documentation URLs shown
// in troubleshooting output.
//
// Usage:
//
//	import "github.com/muurk/orblink/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.WiFiCommands)
package urls
