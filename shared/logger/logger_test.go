package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_JSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Writer: &buf, Service: "worldforge"})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.String("worldID", "w1"))
	require.NoError(t, log.Sync())

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "worldforge", entries[0]["service"])
	assert.Equal(t, "w1", entries[0]["worldID"])
	assert.Contains(t, entries[0], "timestamp")
	assert.NotContains(t, entries[0], "caller")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "loud", Writer: &buf})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("kept")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "Falling back to info level", entries[0]["msg"])
	assert.Equal(t, "kept", entries[1]["msg"])
}

func TestNew_DevelopmentAddsCaller(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Writer: &buf, Development: true})
	require.NoError(t, err)

	log.Info("here")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0]["caller"], "logger_test.go")
}

func TestNew_ConsoleEncodingIsPlain(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Encoding: "text", Writer: &buf})
	require.NoError(t, err)

	log.Info("plain line")
	out := buf.String()
	assert.Contains(t, out, "INFO\tplain line")
	assert.NotContains(t, out, "\x1b[")
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldforge.log")
	log, err := New(Config{OutputPath: path})
	require.NoError(t, err)

	log.Info("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}
