package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "json")

	logger.WithField("account", "work").Debug("fetching")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetching", entry["msg"])
	assert.Equal(t, "work", entry["account"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"warn", logrus.WarnLevel},
		{" ERROR ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewWithWriter(&bytes.Buffer{}, tt.level, "text")
			assert.Equal(t, tt.want, logger.GetLevel())
			assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
		})
	}
}
