package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity
// when no level is given on the command line.
// Valid values: "silent", "errors", "verbose"
const LogLevelEnvVar = "ORBLINK_LOG_LEVEL"

// rawDumpLimit caps hex and ASCII dumps of modem traffic.
const rawDumpLimit = 256

// Level is the closed set of logging verbosities.
type Level int

const (
	// LevelSilent disables log output entirely.
	LevelSilent Level = iota
	// LevelErrors logs warnings and errors.
	LevelErrors
	// LevelVerbose logs everything, including raw modem traffic.
	LevelVerbose
)

// String returns the canonical name of l.
func (l Level) String() string {
	switch l {
	case LevelSilent:
		return "silent"
	case LevelErrors:
		return "errors"
	case LevelVerbose:
		return "verbose"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel normalises a level name. Empty input means errors, so that
// failures are reported without any configuration. The legacy boolean
// spellings are accepted so that old configs keep working.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "off", "false", "0":
		return LevelSilent, nil
	case "", "errors", "error", "warn":
		return LevelErrors, nil
	case "verbose", "debug", "true", "1":
		return LevelVerbose, nil
	default:
		return LevelErrors, fmt.Errorf("unknown log level %q (want silent, errors or verbose)", s)
	}
}

// New builds a logger for level. Silent yields a no-op logger.
func New(level Level) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case LevelSilent:
		return zap.NewNop(), nil
	case LevelErrors:
		zapLevel = zapcore.WarnLevel
	case LevelVerbose:
		zapLevel = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown log level %d", int(level))
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// Initialize builds the process logger from a level name. If name is empty
// the ORBLINK_LOG_LEVEL environment variable is consulted.
func Initialize(name string) error {
	if name == "" {
		name = os.Getenv(LogLevelEnvVar)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l, err := New(level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// GetLogger returns the process logger, silent until Initialize is called.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// RawFields describes raw modem traffic for a debug log entry.
func RawFields(raw string) []zap.Field {
	data := []byte(raw)
	return []zap.Field{
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	}
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > rawDumpLimit {
		return hex.EncodeToString(data[:rawDumpLimit]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > rawDumpLimit {
		data = data[:rawDumpLimit]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
