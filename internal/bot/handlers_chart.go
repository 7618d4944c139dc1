package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
)

// handleChart handles /chart [period], listing income and expense per bucket.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	period, err := parsePeriodArg(extractCommandArgs(update.Message.Text, "/chart"))
	if err != nil {
		sendHTML(ctx, tg, chatID, "❌ Unknown period. Use "+periodUsage+".")
		return
	}

	buckets, err := b.ledger.Chart(ctx, userKey(update.Message.From.ID), period)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to build chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, buildChartText(period.Title(), buckets))
}

func buildChartText(title string, buckets []analytics.Bucket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 <b>%s Chart</b>\n\n<pre>", title)
	fmt.Fprintf(&sb, "%-12s %10s %10s\n", analytics.TableHeader[0], analytics.TableHeader[1], analytics.TableHeader[2])
	for _, bk := range buckets {
		fmt.Fprintf(&sb, "%-12s %10s %10s\n", escapeHTML(bk.Label), bk.Income.StringFixed(2), bk.Expense.StringFixed(2))
	}
	sb.WriteString("</pre>")
	return sb.String()
}

// handlePie handles /pie [period], sending the expense breakdown as a PNG.
func (b *Bot) handlePie(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePieCore(ctx, tgBot, update)
}

func (b *Bot) handlePieCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)

	period, err := parsePeriodArg(extractCommandArgs(update.Message.Text, "/pie"))
	if err != nil {
		sendHTML(ctx, tg, chatID, "❌ Unknown period. Use "+periodUsage+".")
		return
	}

	png, err := b.ledger.CategoryPie(ctx, userID, period)
	if errors.Is(err, analytics.ErrNothingToChart) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("📊 No expenses found for %s.", strings.ToLower(period.Title())))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to render pie chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: analytics.ChartFilename(period, b.ledger.Now()), Data: bytes.NewReader(png)},
		Caption: fmt.Sprintf("📊 %s expenses by category", period.Title()),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to send chart. Please try again.")
		return
	}

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Str("period", string(period)).Msg("Pie chart sent")
}
