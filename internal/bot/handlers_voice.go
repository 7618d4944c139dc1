package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
)

// MaxVoiceBytes caps a downloaded voice note.
const MaxVoiceBytes = 10 << 20

// handleVoice handles voice notes, transcribing them into the chat's draft.
func (b *Bot) handleVoice(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleVoiceCore(ctx, tgBot, update)
}

func (b *Bot) handleVoiceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.Voice == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)

	if b.transcriber == nil {
		sendHTML(ctx, tg, chatID, "🎙️ Voice input is not configured. Type it instead, e.g. <code>spent 12.50 on food with cash</code>")
		return
	}

	audio, err := b.downloadFile(ctx, tg, update.Message.Voice.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to download voice file")
		b.reportSpeechError(ctx, tg, chatID, voice.NewError(voice.CodeNetwork, err))
		return
	}

	transcript, err := b.transcribe(ctx, userID, audio, update.Message.Voice.MimeType)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("user", logger.HashUserID(userID)).
			Str("code", voice.CodeOf(err).String()).
			Msg("Voice note not recognized")
		b.reportSpeechError(ctx, tg, chatID, err)
		return
	}

	b.applyToDraft(ctx, tg, chatID, userID, transcript)
}

// transcribe passes the user's card and category names as hints when the
// transcriber supports them.
func (b *Bot) transcribe(ctx context.Context, userID string, audio []byte, mimeType string) (string, error) {
	hinted, ok := b.transcriber.(HintedTranscriber)
	if !ok {
		return b.transcriber.Transcribe(ctx, audio, mimeType)
	}

	var hints []string
	if cards, err := b.ledger.Cards(ctx, userID); err == nil {
		for _, c := range cards {
			hints = append(hints, c.BankName)
		}
	}
	if categories, err := b.ledger.Categories(ctx, userID, ""); err == nil {
		for _, c := range categories {
			hints = append(hints, c.Name)
		}
	}
	return hinted.TranscribeWithHints(ctx, audio, mimeType, hints)
}

// reportSpeechError shows the recognition message, drops the chat's draft
// and removes the notice again after dismissDelay.
func (b *Bot) reportSpeechError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	b.drafts.drop(chatID)
	msg, sendErr := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("🎙️ %s. Please try again.", escapeHTML(voice.CodeOf(err).Message())),
		ParseMode: models.ParseModeHTML,
	})
	if sendErr != nil || msg == nil {
		return
	}
	b.dismissLater(ctx, tg, chatID, msg.ID)
}

// dismissLater deletes a message once dismissDelay has passed. The deletion
// outlives the update's context.
func (b *Bot) dismissLater(ctx context.Context, tg TelegramAPI, chatID int64, messageID int) {
	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(b.dismissDelay, func() {
		_, err := tg.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
		if err != nil {
			logger.Log.Debug().Err(err).Int64("chat_id", chatID).Msg("Failed to dismiss speech notice")
		}
	})
}

func (b *Bot) downloadFile(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxVoiceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > MaxVoiceBytes {
		return nil, fmt.Errorf("voice file exceeds %d bytes", MaxVoiceBytes)
	}
	return data, nil
}
