package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// New builds a logger writing text lines to out (stderr when nil) so it never mixes with
// the console tables on stdout.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid log level %q", types.ErrConfig, level)
	}
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	return logger, nil
}

// Discard returns a logger that drops everything, for tests and library callers.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
