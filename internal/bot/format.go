package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

const (
	genericErrorMsg = "❌ Something went wrong. Please try again."
	periodUsage     = "<code>daily</code>, <code>weekly</code>, <code>monthly</code> or <code>yearly</code>"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(name string) string {
	if name == "" {
		return ""
	}
	return ", " + escapeHTML(name)
}

func sendHTML(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
}

// sendError reports a ledger failure. Validation messages are shown as-is;
// anything else becomes a generic notice.
func sendError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		sendHTML(ctx, tg, chatID, "❌ "+escapeHTML(ve.Message))
		return
	}
	sendHTML(ctx, tg, chatID, genericErrorMsg)
}

// parsePeriodArg reads a period argument, defaulting to monthly.
func parsePeriodArg(args string) (models.Period, error) {
	if args == "" {
		return models.PeriodMonthly, nil
	}
	p, err := models.ParsePeriod(args)
	if err != nil {
		return "", fmt.Errorf("invalid period: %w", err)
	}
	return p, nil
}

func formatTransactionLine(t models.Transaction) string {
	category := t.Category.Name
	if category == "" {
		category = "Uncategorized"
	}
	return fmt.Sprintf("%s  <b>%s</b>  %s · %s · %s",
		t.Date.Format("Jan 02"),
		escapeHTML(t.SignedDisplay()),
		escapeHTML(t.Description),
		escapeHTML(category),
		escapeHTML(t.CardOrWallet))
}
