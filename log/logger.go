package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the structured logger handed to the release driver.
// Verbose enables debug output; timestamps are always full so journal entries
// and log lines can be correlated.
func NewLogger(verbose bool, out io.Writer) *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(out)
	lg.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	lg.SetLevel(logrus.InfoLevel)
	if verbose {
		lg.SetLevel(logrus.DebugLevel)
	}
	return lg
}
