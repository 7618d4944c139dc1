package mocks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBuilder_WithMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().
		WithMessage(100, 200, "/balance").
		WithMessageID(42).
		Build()

	require.NotNil(t, update.Message)
	require.Equal(t, int64(100), update.Message.Chat.ID)
	require.Equal(t, int64(200), update.Message.From.ID)
	require.Equal(t, "/balance", update.Message.Text)
	require.Equal(t, 42, update.Message.ID)
}

func TestUpdateBuilder_WithFrom(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().
		WithMessage(1, 2, "hi").
		WithFrom(3, "ann", "Ann", "Lee").
		Build()
	require.Equal(t, int64(3), update.Message.From.ID)
	require.Equal(t, "ann", update.Message.From.Username)

	cb := NewUpdateBuilder().
		WithCallbackQuery("cb", 1, 2, 5, "draft_save").
		WithFrom(9, "bob", "Bob", "").
		Build()
	require.Equal(t, int64(9), cb.CallbackQuery.From.ID)
}

func TestCallbackQueryUpdate(t *testing.T) {
	t.Parallel()

	update := CallbackQueryUpdate(100, 200, 55, "draft_cancel")

	require.NotNil(t, update.CallbackQuery)
	require.Equal(t, "draft_cancel", update.CallbackQuery.Data)
	require.Equal(t, int64(200), update.CallbackQuery.From.ID)
	require.Equal(t, int64(100), update.CallbackQuery.Message.Message.Chat.ID)
	require.Equal(t, 55, update.CallbackQuery.Message.Message.ID)
}

func TestVoiceUpdate(t *testing.T) {
	t.Parallel()

	update := VoiceUpdate(100, 200, "voice-1", 4)

	require.NotNil(t, update.Message.Voice)
	require.Equal(t, "voice-1", update.Message.Voice.FileID)
	require.Equal(t, 4, update.Message.Voice.Duration)
	require.Equal(t, "audio/ogg", update.Message.Voice.MimeType)
}

func TestUpdateBuilder_WithVoice_CreatesMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithVoice("v", 1).Build()
	require.NotNil(t, update.Message)
	require.NotNil(t, update.Message.Voice)
}

func TestCommandUpdate(t *testing.T) {
	t.Parallel()

	update := CommandUpdate(1, 2, "/help")
	require.Equal(t, "/help", update.Message.Text)
}
