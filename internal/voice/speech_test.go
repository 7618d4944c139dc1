package voice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCodeMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code Code
		want string
	}{
		{CodeAudio, "Audio recording error"},
		{CodeClient, "Client side error"},
		{CodePermissionDenied, "Insufficient permissions (RECORD_AUDIO required)"},
		{CodeNetwork, "Network error"},
		{CodeNetworkTimeout, "Network timeout"},
		{CodeNoMatch, "No speech recognized"},
		{CodeBusy, "Speech recognizer busy"},
		{CodeServer, "Server error"},
		{CodeSpeechTimeout, "No speech input"},
		{CodeUnknown, "Unknown speech recognition error"},
		{Code(99), "Unknown speech recognition error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.code.Message())
		})
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("transcribe: %w", NewError(CodeNoMatch, nil))
	require.Equal(t, CodeNoMatch, CodeOf(wrapped))
	require.Equal(t, CodeNetworkTimeout, CodeOf(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	require.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
	require.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("socket closed")
	err := NewError(CodeNetwork, cause)

	require.Equal(t, "Network error: socket closed", err.Error())
	require.ErrorIs(t, err, cause)
	require.Equal(t, "No speech input", NewError(CodeSpeechTimeout, nil).Error())
}

func TestDismissDelay(t *testing.T) {
	t.Parallel()
	require.Equal(t, 2*time.Second, DismissDelay)
}
