package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	appmodels "gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// HistoryLimit caps the transactions listed by /history.
const HistoryLimit = 15

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	name := update.Message.From.FirstName
	if p, err := b.ledger.Profile(ctx, userKey(update.Message.From.ID)); err == nil && p.WhatDoWeCallYou != "" {
		name = p.WhatDoWeCallYou
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep track of what you spend and earn.

<b>Quick Start:</b>
• Add a card: <code>/addcard DBS|4111111111111111|Ann Lee|08/27</code>
• Add a category: <code>/addcategory Food</code>
• Then just say it: <code>spent 12.50 on food with dbs</code>
• Or send a voice note saying the same thing.

Use /help to see all available commands.`, formatGreeting(name))

	sendHTML(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Recording:</b>
• <code>/add &lt;phrase&gt;</code> - Start a draft, e.g. <code>/add received 200 salary cash</code>
• Plain text or a voice note works too

<b>Overview:</b>
• <code>/balance [currency]</code> - Income minus expenses
• <code>/summary [period]</code> - Totals and top categories
• <code>/chart [period]</code> - Income vs expense per bucket
• <code>/pie [period]</code> - Expense breakdown image
• <code>/history [search]</code> - Recent transactions
• <code>/export</code> - Full history as CSV

<b>Setup:</b>
• <code>/cards</code>, <code>/addcard bank|number|holder|MM/YY</code>
• <code>/categories [search]</code>, <code>/addcategory &lt;name&gt; [#RRGGBB]</code>
• <code>/threshold</code>, <code>/threshold check</code>
• <code>/setthreshold &lt;daily&gt; &lt;monthly&gt; &lt;yearly&gt;</code>
• <code>/profile</code>, <code>/setname &lt;name&gt;</code>
• <code>/notifications</code>

Periods: ` + periodUsage + `.`

	sendHTML(ctx, tg, update.Message.Chat.ID, text)
}

// handleBalance handles the /balance command.
func (b *Bot) handleBalance(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)

	if currency := extractCommandArgs(update.Message.Text, "/balance"); currency != "" {
		converted, err := b.ledger.BalanceIn(ctx, userID, currency)
		if err != nil {
			logger.Log.Warn().Err(err).Str("currency", currency).Msg("Failed to convert balance")
			sendError(ctx, tg, chatID, err)
			return
		}
		text := fmt.Sprintf("💼 <b>Balance:</b> %s\n<i>1 %s = %s %s (%s)</i>",
			formatSignedIn(converted.Balance, converted.Currency),
			converted.Rate.From, converted.Rate.Value.String(), converted.Rate.To,
			converted.Rate.Date.Format(time.DateOnly))
		sendHTML(ctx, tg, chatID, text)
		return
	}

	balance, err := b.ledger.Balance(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to compute balance")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}

	sendHTML(ctx, tg, chatID, "💼 <b>Balance:</b> "+formatSigned(balance))
}

func formatSigned(d decimal.Decimal) string {
	return formatSignedIn(d, appmodels.DefaultCurrency)
}

func formatSignedIn(d decimal.Decimal, currency string) string {
	if d.IsNegative() {
		return "-" + appmodels.FormatAmount(d.Abs(), currency)
	}
	return appmodels.FormatAmount(d, currency)
}

// handleSummary handles /summary [period].
func (b *Bot) handleSummary(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSummaryCore(ctx, tgBot, update)
}

func (b *Bot) handleSummaryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	period, err := parsePeriodArg(extractCommandArgs(update.Message.Text, "/summary"))
	if err != nil {
		sendHTML(ctx, tg, chatID, "❌ Unknown period. Use "+periodUsage+".")
		return
	}

	summary, err := b.ledger.Summary(ctx, userKey(update.Message.From.ID), period)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to build summary")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}

	sendHTML(ctx, tg, chatID, buildSummaryText(summary))
}

func buildSummaryText(s analytics.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s Summary</b>\n\n", s.Period.Title())
	fmt.Fprintf(&sb, "⬆️ Income: %s\n", appmodels.FormatAmount(s.TotalIncome, appmodels.DefaultCurrency))
	fmt.Fprintf(&sb, "⬇️ Expense: %s\n", appmodels.FormatAmount(s.TotalExpense, appmodels.DefaultCurrency))

	writeBreakdown := func(title string, totals []analytics.CategoryTotal) {
		if len(totals) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", title)
		for _, ct := range totals {
			name := ct.Name
			if name == "" {
				name = "Uncategorized"
			}
			fmt.Fprintf(&sb, "• %s: %s\n", escapeHTML(name), appmodels.FormatAmount(ct.Total, appmodels.DefaultCurrency))
		}
	}
	writeBreakdown("Expenses by category", s.ExpenseByCategory)
	writeBreakdown("Income by category", s.IncomeByCategory)
	return sb.String()
}

// handleHistory handles /history [search].
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	query := extractCommandArgs(update.Message.Text, "/history")

	txns, err := b.ledger.Transactions(ctx, userKey(update.Message.From.ID), query)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list transactions")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}

	if len(txns) == 0 {
		if query != "" {
			sendHTML(ctx, tg, chatID, fmt.Sprintf("🔍 No transactions match <b>%s</b>.", escapeHTML(query)))
			return
		}
		sendHTML(ctx, tg, chatID, "📭 No transactions yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🧾 <b>Recent Transactions</b>\n\n")
	for _, t := range txns[:min(len(txns), HistoryLimit)] {
		sb.WriteString(formatTransactionLine(t))
		sb.WriteString("\n")
	}
	if len(txns) > HistoryLimit {
		fmt.Fprintf(&sb, "\n…and %d more. Use /export for everything.", len(txns)-HistoryLimit)
	}
	sendHTML(ctx, tg, chatID, sb.String())
}

// handleExport handles /export, sending the full history as CSV.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := userKey(update.Message.From.ID)

	data, err := b.ledger.ExportCSV(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		sendHTML(ctx, tg, chatID, "❌ Failed to generate CSV report. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: analytics.ReportFilename(b.ledger.Now()), Data: bytes.NewReader(data)},
		Caption:  "📊 Your transaction history",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		sendHTML(ctx, tg, chatID, "❌ Failed to send report. Please try again.")
		return
	}

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Int("bytes", len(data)).Msg("History exported")
}

// handleNotifications handles /notifications with the sample feed.
func (b *Bot) handleNotifications(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNotificationsCore(ctx, tgBot, update)
}

func (b *Bot) handleNotificationsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Notifications</b>\n\n")
	for _, n := range appmodels.SampleNotifications() {
		icon := "🟢"
		if n.Amount.IsNegative() {
			icon = "🔴"
		}
		fmt.Fprintf(&sb, "%s %s · %s ago\n", icon, escapeHTML(n.Description), n.TimeAgo)
	}
	sendHTML(ctx, tg, update.Message.Chat.ID, sb.String())
}

// handleProfile handles /profile.
func (b *Bot) handleProfile(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleProfileCore(ctx, tgBot, update)
}

func (b *Bot) handleProfileCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	p, err := b.ledger.Profile(ctx, userKey(update.Message.From.ID))
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load profile")
		sendHTML(ctx, tg, chatID, genericErrorMsg)
		return
	}

	orDash := func(s string) string {
		if s == "" {
			return "—"
		}
		return escapeHTML(s)
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf(`👤 <b>Profile</b>

Name: %s
Call me: %s
Email: %s
Phone: %s`, orDash(p.FullName), orDash(p.WhatDoWeCallYou), orDash(p.Email), orDash(p.PhoneNumber)))
}

// handleSetName handles /setname <name>, changing what the bot calls the user.
func (b *Bot) handleSetName(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetNameCore(ctx, tgBot, update)
}

func (b *Bot) handleSetNameCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name := extractCommandArgs(update.Message.Text, "/setname")
	if name == "" {
		sendHTML(ctx, tg, chatID, "❌ Usage: <code>/setname &lt;name&gt;</code>")
		return
	}

	err := b.ledger.UpdateProfile(ctx, userKey(update.Message.From.ID), appmodels.ProfileUpdate{WhatDoWeCallYou: &name})
	if err != nil {
		sendError(ctx, tg, chatID, err)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ I'll call you <b>%s</b> from now on.", escapeHTML(name)))
}
