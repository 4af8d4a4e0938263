package mock

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// SetupLogger returns a debug-level logger that only outputs if the test fails.
func SetupLogger(t *testing.T) *logrus.Logger {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	t.Cleanup(func() {
		if t.Failed() {
			os.Stdout.Write(buf.Bytes()) //nolint:errcheck
		}
	})

	return logger
}
