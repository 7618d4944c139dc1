package voice

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DismissDelay is how long a speech error notice stays visible.
const DismissDelay = 2 * time.Second

// Code classifies a speech recognition failure.
type Code int

// Speech recognition error codes.
const (
	CodeUnknown Code = iota
	CodeAudio
	CodeClient
	CodePermissionDenied
	CodeNetwork
	CodeNetworkTimeout
	CodeNoMatch
	CodeBusy
	CodeServer
	CodeSpeechTimeout
)

var codeMessages = map[Code]string{
	CodeAudio:            "Audio recording error",
	CodeClient:           "Client side error",
	CodePermissionDenied: "Insufficient permissions (RECORD_AUDIO required)",
	CodeNetwork:          "Network error",
	CodeNetworkTimeout:   "Network timeout",
	CodeNoMatch:          "No speech recognized",
	CodeBusy:             "Speech recognizer busy",
	CodeServer:           "Server error",
	CodeSpeechTimeout:    "No speech input",
}

// Message returns the human-readable text shown to the user.
func (c Code) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown speech recognition error"
}

func (c Code) String() string {
	return c.Message()
}

// Error is a speech recognition failure with its code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.Message()
	}
	return fmt.Sprintf("%s: %v", e.Code.Message(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a recognition code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the recognition code from err. Context deadlines map to
// CodeNetworkTimeout and anything unrecognized to CodeUnknown.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeNetworkTimeout
	}
	return CodeUnknown
}

// Transcriber converts recorded audio into a single best-guess transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
