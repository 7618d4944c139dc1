package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	appmodels "gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// handleThreshold handles /threshold and /threshold check.
func (b *Bot) handleThreshold(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleThresholdCore(ctx, tgBot, update)
}

func (b *Bot) handleThresholdCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)

	if strings.EqualFold(extractCommandArgs(update.Message.Text, "/threshold"), "check") {
		statuses, _, err := b.ledger.CheckThresholds(ctx, userID)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to check thresholds")
			sendHTML(ctx, tg, chatID, genericErrorMsg)
			return
		}
		sendHTML(ctx, tg, chatID, buildThresholdCheckText(statuses))
		return
	}

	th, err := b.ledger.Thresholds(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load thresholds")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf(`🎯 <b>Spending Limits</b>

Daily: %s
Monthly: %s
Yearly: %s

Change with <code>/setthreshold &lt;daily&gt; &lt;monthly&gt; &lt;yearly&gt;</code>`,
		formatLimit(th.Daily), formatLimit(th.Monthly), formatLimit(th.Yearly)))
}

func formatLimit(d decimal.Decimal) string {
	if d.IsZero() {
		return "not set"
	}
	return appmodels.FormatAmount(d, appmodels.DefaultCurrency)
}

func buildThresholdCheckText(statuses []analytics.ThresholdStatus) string {
	var sb strings.Builder
	sb.WriteString("🎯 <b>Threshold Check</b>\n\n")
	for _, st := range statuses {
		icon := "✅"
		switch {
		case !st.Limit.IsPositive():
			icon = "➖"
		case st.Over:
			icon = "⚠️"
		}
		fmt.Fprintf(&sb, "%s %s: %s of %s\n", icon, st.Period.Title(),
			appmodels.FormatAmount(st.Spent, appmodels.DefaultCurrency), formatLimit(st.Limit))
	}
	return sb.String()
}

// handleSetThreshold handles /setthreshold <daily> <monthly> <yearly>.
func (b *Bot) handleSetThreshold(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetThresholdCore(ctx, tgBot, update)
}

func (b *Bot) handleSetThresholdCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	const usage = "❌ Usage: <code>/setthreshold &lt;daily&gt; &lt;monthly&gt; &lt;yearly&gt;</code>"

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/setthreshold"))
	if len(fields) != 3 {
		sendHTML(ctx, tg, chatID, usage)
		return
	}
	values := make([]decimal.Decimal, 3)
	for i, f := range fields {
		d, err := decimal.NewFromString(strings.TrimPrefix(f, "$"))
		if err != nil {
			sendHTML(ctx, tg, chatID, usage)
			return
		}
		values[i] = d
	}

	th := appmodels.Threshold{Daily: values[0], Monthly: values[1], Yearly: values[2]}
	if err := b.ledger.SetThresholds(ctx, userKey(update.Message.From.ID), th); err != nil {
		sendError(ctx, tg, chatID, err)
		return
	}
	sendHTML(ctx, tg, chatID, "✅ Spending limits saved.")
}

// warnOverThresholds reports limits exceeded after a save. Nothing is
// blocked, and a zero limit counts as unset.
func (b *Bot) warnOverThresholds(ctx context.Context, tg TelegramAPI, chatID int64, userID string) {
	statuses, _, err := b.ledger.CheckThresholds(ctx, userID)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to check thresholds after save")
		return
	}

	var over []string
	for _, st := range statuses {
		if st.Over && st.Limit.IsPositive() {
			over = append(over, strings.ToLower(st.Period.Title()))
		}
	}
	if len(over) == 0 {
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("⚠️ You are over your %s limit. See <code>/threshold check</code>.", strings.Join(over, " and ")))
}
