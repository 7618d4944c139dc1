package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			SetLevel(tt.in)
			require.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}

	// Reset to debug for other tests.
	SetLevel("debug")
}

func TestSetOutput(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	var buf bytes.Buffer
	SetOutput(&buf)
	Log.Info().Str("period", "DAILY").Msg("summary computed")

	require.Contains(t, buf.String(), `"period":"DAILY"`)
	require.Contains(t, buf.String(), `"service":"expenditure-manager"`)
}

func TestConfigure(t *testing.T) {
	original := Log
	defer func() {
		Log = original
		SetLevel("debug")
	}()

	Configure("warn", "json")
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	require.NotNil(t, Log)
}
