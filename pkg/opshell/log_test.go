package opshell_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/opshell/pkg/opshell"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := opshell.NewLogger(&buf, zerolog.InfoLevel)

	logger.Info().Msg("container created")
	logger.Debug().Msg("hidden")

	output := buf.String()
	if !strings.Contains(output, "container created") {
		t.Errorf("Expected log output to contain message, got: %s", output)
	}
	if strings.Contains(output, "hidden") {
		t.Errorf("Debug message should be filtered at info level, got: %s", output)
	}
	if !strings.HasSuffix(strings.TrimSpace(output), "lib=opshell") {
		t.Errorf("Expected log output to end with 'lib=opshell', got: %s", output)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := opshell.Component(opshell.NewLogger(&buf, zerolog.InfoLevel), "store")
	logger.Info().Msg("opened")
	assert.Contains(t, buf.String(), "component=store")
}

func TestLogLevelFromString(t *testing.T) {
	testCases := []struct {
		levelStr string
		expected zerolog.Level
		wantErr  bool
	}{
		{"trace", zerolog.TraceLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{" info ", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tc := range testCases {
		t.Run(tc.levelStr, func(t *testing.T) {
			level, err := opshell.LogLevelFromString(tc.levelStr)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestVerbosityLevel(t *testing.T) {
	testCases := []struct {
		verbose  int
		expected zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.expected.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, opshell.VerbosityLevel(tc.verbose))
			var buf bytes.Buffer
			assert.Equal(t, tc.expected, opshell.NewTestLogger(&buf, tc.verbose).GetLevel())
		})
	}
}

func TestBuildInfo(t *testing.T) {
	info := opshell.BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02"}
	assert.Equal(t, "opshell 1.2.0 (commit: abc123, built: 2026-01-02)", info.String())
}
