package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
)

const (
	draftCallbackPrefix = "draft_"
	draftSaveCallback   = "draft_save"
	draftCancelCallback = "draft_cancel"
	draftExpiredMsg     = "This draft has expired. Start a new one."
)

func draftKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Save", CallbackData: draftSaveCallback},
				{Text: "❌ Cancel", CallbackData: draftCancelCallback},
			},
		},
	}
}

// handleAdd handles /add <phrase>.
func (b *Bot) handleAdd(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCore(ctx, tgBot, update)
}

func (b *Bot) handleAddCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := extractCommandArgs(update.Message.Text, "/add")
	if args == "" {
		sendHTML(ctx, tg, chatID, "❌ Tell me what to record.\n\nUsage: <code>/add spent 12.50 on food with visa</code>")
		return
	}

	b.applyToDraft(ctx, tg, chatID, userKey(update.Message.From.ID), args)
}

// handleFreeTextCore feeds plain text into the chat's draft. Text only
// starts a new draft when it mentions an amount; it reports whether the
// text was consumed.
func (b *Bot) handleFreeTextCore(ctx context.Context, tg TelegramAPI, update *models.Update) bool {
	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)
	text := strings.TrimSpace(update.Message.Text)

	if _, ok := b.drafts.get(chatID); ok {
		b.applyToDraft(ctx, tg, chatID, userID, text)
		return true
	}

	cmd, err := b.ledger.ParseCommand(ctx, userID, text)
	if err != nil {
		logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to parse free text")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return true
	}
	if cmd.Amount == nil {
		return false
	}
	b.mergeIntoDraft(ctx, tg, chatID, cmd, text)
	return true
}

// applyToDraft parses text with the user's cards and categories, merges it
// into the chat's draft and shows the result.
func (b *Bot) applyToDraft(ctx context.Context, tg TelegramAPI, chatID int64, userID, text string) {
	cmd, err := b.ledger.ParseCommand(ctx, userID, text)
	if err != nil {
		logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to parse command")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}
	b.mergeIntoDraft(ctx, tg, chatID, cmd, text)
}

func (b *Bot) mergeIntoDraft(ctx context.Context, tg TelegramAPI, chatID int64, cmd voice.Command, text string) {
	d := b.drafts.update(chatID, func(d *voice.Draft) { d.Apply(cmd, text) })
	b.showDraft(ctx, tg, chatID, d)
}

func (b *Bot) showDraft(ctx context.Context, tg TelegramAPI, chatID int64, d voice.Draft) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        buildDraftText(d),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: draftKeyboard(),
	})
	if err != nil {
		logger.Log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send draft")
	}
}

func buildDraftText(d voice.Draft) string {
	orDash := func(s string) string {
		if s == "" {
			return "—"
		}
		return escapeHTML(s)
	}

	amount := "—"
	if d.Amount != nil {
		amount = d.Amount.StringFixed(2)
	}

	var sb strings.Builder
	sb.WriteString("🧾 <b>Draft Transaction</b>\n\n")
	fmt.Fprintf(&sb, "Type: %s\n", orDash(string(d.Type)))
	fmt.Fprintf(&sb, "💰 Amount: %s\n", amount)
	fmt.Fprintf(&sb, "📁 Category: %s\n", orDash(d.Category))
	fmt.Fprintf(&sb, "💳 Card: %s\n", orDash(d.CardOrWallet))
	fmt.Fprintf(&sb, "📝 Description: %s\n", orDash(d.Description))
	if d.HeardText != "" {
		fmt.Fprintf(&sb, "🎙️ Heard: <i>%s</i>\n", escapeHTML(d.HeardText))
	}
	if missing := d.Missing(); len(missing) > 0 {
		fmt.Fprintf(&sb, "\nStill needed: %s. Send more text to fill it in.", strings.Join(missing, ", "))
	} else {
		sb.WriteString("\nLooks good. Save it?")
	}
	return sb.String()
}

// handleDraftCallback handles the Save and Cancel buttons.
func (b *Bot) handleDraftCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDraftCallbackCore(ctx, tgBot, update)
}

func (b *Bot) handleDraftCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	switch cq.Data {
	case draftCancelCallback:
		b.drafts.drop(chatID)
		answer(ctx, tg, cq.ID, "", false)
		_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      "❌ Draft discarded.",
		})

	case draftSaveCallback:
		b.saveDraft(ctx, tg, cq.ID, chatID, messageID, userKey(cq.From.ID))

	default:
		answer(ctx, tg, cq.ID, "", false)
	}
}

func (b *Bot) saveDraft(ctx context.Context, tg TelegramAPI, callbackID string, chatID int64, messageID int, userID string) {
	d, ok := b.drafts.get(chatID)
	if !ok {
		answer(ctx, tg, callbackID, draftExpiredMsg, true)
		return
	}
	if missing := d.Missing(); len(missing) > 0 {
		answer(ctx, tg, callbackID, "Still needed: "+strings.Join(missing, ", "), true)
		return
	}

	t, err := b.ledger.AddTransaction(ctx, userID, ledger.DraftToTransaction(&d))
	if err != nil {
		var ve *ledger.ValidationError
		if errors.As(err, &ve) {
			answer(ctx, tg, callbackID, ve.Message, true)
			return
		}
		logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to save draft")
		answer(ctx, tg, callbackID, "Failed to save. Please try again.", true)
		return
	}

	b.drafts.drop(chatID)
	answer(ctx, tg, callbackID, "Saved", false)
	_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "✅ <b>Saved</b>\n\n" + formatTransactionLine(*t),
		ParseMode: models.ParseModeHTML,
	})

	b.warnOverThresholds(ctx, tg, chatID, userID)
}

func answer(ctx context.Context, tg TelegramAPI, callbackID, text string, alert bool) {
	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}
