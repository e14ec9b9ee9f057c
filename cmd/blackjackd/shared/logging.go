package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures console logging on stderr at the named level.
// Unknown level names fall back to info.
func SetupLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}

	return logger
}

// SetupQuietLogger discards all output. The interactive client uses it so log
// lines cannot corrupt the terminal UI.
func SetupQuietLogger() *log.Logger {
	return log.New(io.Discard)
}
