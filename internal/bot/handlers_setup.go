package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	appmodels "gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// handleCards handles /cards.
func (b *Bot) handleCards(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCardsCore(ctx, tgBot, update)
}

func (b *Bot) handleCardsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	cards, err := b.ledger.Cards(ctx, userKey(update.Message.From.ID))
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list cards")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch cards. Please try again.")
		return
	}
	if len(cards) == 0 {
		sendHTML(ctx, tg, chatID, "💳 No cards yet. Add one with <code>/addcard bank|number|holder|MM/YY</code>")
		return
	}

	var sb strings.Builder
	sb.WriteString("💳 <b>Your Cards</b>\n\n")
	for i, c := range cards {
		fmt.Fprintf(&sb, "%d. <b>%s</b> %s · %s · exp %s\n", i+1,
			escapeHTML(c.BankName), logger.MaskCardNumber(c.CardNumber), escapeHTML(c.HolderName), escapeHTML(c.Expiry))
	}
	fmt.Fprintf(&sb, "\nSay <b>%s</b> for cash.", appmodels.CashWallet)
	sendHTML(ctx, tg, chatID, sb.String())
}

// handleAddCard handles /addcard bank|number|holder|MM/YY. The security code
// is never asked for or stored.
func (b *Bot) handleAddCard(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCardCore(ctx, tgBot, update)
}

func (b *Bot) handleAddCardCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parts := strings.Split(extractCommandArgs(update.Message.Text, "/addcard"), "|")
	if len(parts) != 4 {
		sendHTML(ctx, tg, chatID, "❌ Usage: <code>/addcard bank|number|holder|MM/YY</code>")
		return
	}

	card, err := b.ledger.AddCard(ctx, userKey(update.Message.From.ID), appmodels.Card{
		BankName:   parts[0],
		CardNumber: strings.ReplaceAll(parts[1], " ", ""),
		HolderName: parts[2],
		Expiry:     parts[3],
	})
	if err != nil {
		sendError(ctx, tg, chatID, err)
		return
	}

	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Card <b>%s</b> %s added.",
		escapeHTML(card.BankName), logger.MaskCardNumber(card.CardNumber)))
}

// handleCategories handles /categories [search].
func (b *Bot) handleCategories(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCategoriesCore(ctx, tgBot, update)
}

func (b *Bot) handleCategoriesCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	query := extractCommandArgs(update.Message.Text, "/categories")

	categories, err := b.ledger.Categories(ctx, userKey(update.Message.From.ID), query)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list categories")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch categories. Please try again.")
		return
	}
	if len(categories) == 0 {
		if query != "" {
			sendHTML(ctx, tg, chatID, fmt.Sprintf("🔍 No categories match <b>%s</b>.", escapeHTML(query)))
			return
		}
		sendHTML(ctx, tg, chatID, "📁 No categories yet. Add one with <code>/addcategory Food</code>")
		return
	}

	var sb strings.Builder
	sb.WriteString("📁 <b>Categories</b>\n\n")
	for i, c := range categories {
		fmt.Fprintf(&sb, "%d. %s <code>%s</code>\n", i+1, escapeHTML(c.Name), c.ColorHex)
	}
	sendHTML(ctx, tg, chatID, sb.String())
}

// handleAddCategory handles /addcategory <name> [#RRGGBB].
func (b *Bot) handleAddCategory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCategoryCore(ctx, tgBot, update)
}

func (b *Bot) handleAddCategoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := extractCommandArgs(update.Message.Text, "/addcategory")
	if args == "" {
		sendHTML(ctx, tg, chatID, "❌ Usage: <code>/addcategory &lt;name&gt; [#RRGGBB]</code>")
		return
	}

	name, color := args, ""
	if i := strings.LastIndex(args, " "); i != -1 && strings.HasPrefix(args[i+1:], "#") {
		name, color = strings.TrimSpace(args[:i]), args[i+1:]
	}

	c, err := b.ledger.AddCategory(ctx, userKey(update.Message.From.ID), appmodels.Category{Name: name, ColorHex: color})
	if err != nil {
		sendError(ctx, tg, chatID, err)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Category <b>%s</b> created.", escapeHTML(c.Name)))
}
