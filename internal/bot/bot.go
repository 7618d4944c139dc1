// Package bot is the Telegram front end of the ledger: commands, free-text
// entry and voice notes, with drafts confirmed through inline buttons.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/config"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/repository"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DownloadTimeout bounds fetching a voice note from Telegram.
const DownloadTimeout = 30 * time.Second

// Ledger is the part of ledger.Service the bot drives.
type Ledger interface {
	Now() time.Time
	AddTransaction(ctx context.Context, userID string, in ledger.NewTransaction) (*models.Transaction, error)
	Transactions(ctx context.Context, userID, query string) ([]models.Transaction, error)
	Summary(ctx context.Context, userID string, period models.Period) (analytics.Summary, error)
	Chart(ctx context.Context, userID string, period models.Period) ([]analytics.Bucket, error)
	CategoryPie(ctx context.Context, userID string, period models.Period) ([]byte, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	BalanceIn(ctx context.Context, userID, currency string) (ledger.ConvertedBalance, error)
	ExportCSV(ctx context.Context, userID string) ([]byte, error)
	AddCard(ctx context.Context, userID string, c models.Card) (*models.Card, error)
	Cards(ctx context.Context, userID string) ([]models.Card, error)
	AddCategory(ctx context.Context, userID string, c models.Category) (*models.Category, error)
	Categories(ctx context.Context, userID, query string) ([]models.Category, error)
	Thresholds(ctx context.Context, userID string) (*models.Threshold, error)
	SetThresholds(ctx context.Context, userID string, th models.Threshold) error
	CheckThresholds(ctx context.Context, userID string) ([]analytics.ThresholdStatus, analytics.SpendTotals, error)
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, u models.ProfileUpdate) error
	ParseCommand(ctx context.Context, userID, text string) (voice.Command, error)
}

var _ Ledger = (*ledger.Service)(nil)

// ProfileBootstrapper creates the profile of a Telegram user on first contact.
type ProfileBootstrapper interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Set(ctx context.Context, p *models.UserProfile) error
}

// HintedTranscriber is a voice.Transcriber that accepts vocabulary hints.
type HintedTranscriber interface {
	voice.Transcriber
	TranscribeWithHints(ctx context.Context, audio []byte, mimeType string, hints []string) (string, error)
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot         *bot.Bot
	cfg         *config.Config
	ledger      Ledger
	profiles    ProfileBootstrapper
	transcriber voice.Transcriber
	drafts      *draftStore
	httpClient  *http.Client
	// dismissDelay is how long a speech error notice stays before removal.
	dismissDelay time.Duration
}

// New creates a new Bot. transcriber may be nil, which disables voice notes.
func New(cfg *config.Config, l Ledger, profiles ProfileBootstrapper, transcriber voice.Transcriber) (*Bot, error) {
	b := newBot(cfg, l, profiles, transcriber)

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, l Ledger, profiles ProfileBootstrapper, transcriber voice.Transcriber) *Bot {
	return &Bot{
		cfg:          cfg,
		ledger:       l,
		profiles:     profiles,
		transcriber:  transcriber,
		drafts:       newDraftStore(DraftTTL),
		dismissDelay: voice.DismissDelay,
		httpClient: &http.Client{
			Timeout:   DownloadTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
	logger.Log.Info().Msg("Bot stopped polling")
}

func (b *Bot) registerHandlers() {
	commands := []struct {
		command string
		handler bot.HandlerFunc
	}{
		{"/start", b.handleStart},
		{"/help", b.handleHelp},
		{"/balance", b.handleBalance},
		{"/summary", b.handleSummary},
		{"/chart", b.handleChart},
		{"/pie", b.handlePie},
		{"/addcard", b.handleAddCard},
		{"/addcategory", b.handleAddCategory},
		{"/add", b.handleAdd},
		{"/cards", b.handleCards},
		{"/categories", b.handleCategories},
		{"/setthreshold", b.handleSetThreshold},
		{"/threshold", b.handleThreshold},
		{"/history", b.handleHistory},
		{"/export", b.handleExport},
		{"/notifications", b.handleNotifications},
		{"/profile", b.handleProfile},
		{"/setname", b.handleSetName},
	}
	for _, c := range commands {
		b.bot.RegisterHandlerMatchFunc(commandMatcher(c.command), c.handler)
	}

	b.bot.RegisterHandlerMatchFunc(isVoiceMessage, b.handleVoice)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, draftCallbackPrefix, bot.MatchTypePrefix, b.handleDraftCallback)
}

// commandMatcher matches "/cmd", "/cmd args" and "/cmd@botname" exactly, so
// "/add" does not also fire for "/addcard".
func commandMatcher(command string) bot.MatchFunc {
	return func(update *tgmodels.Update) bool {
		if update.Message == nil {
			return false
		}
		first, _, _ := strings.Cut(update.Message.Text, " ")
		first, _, _ = strings.Cut(first, "@")
		return first == command
	}
}

func isVoiceMessage(update *tgmodels.Update) bool {
	return update.Message != nil && update.Message.Voice != nil
}

// whitelistMiddleware drops updates from users not in the whitelist and
// bootstraps a profile for everyone else.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.allow(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

func (b *Bot) allow(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	tgUserID := extractUserID(update)
	if tgUserID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(tgUserID, update)

	if !b.cfg.IsUserWhitelisted(tgUserID, username) {
		logger.Log.Warn().
			Str("user", logger.HashUserID(userKey(tgUserID))).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureProfile(ctx, update); err != nil {
		logger.Log.Error().
			Str("user", logger.HashUserID(userKey(tgUserID))).
			Err(err).
			Msg("Failed to bootstrap profile")
	}
	return true
}

// logUserAction logs the shape of the update without its content.
func logUserAction(tgUserID int64, update *tgmodels.Update) {
	event := logger.Log.Info().Str("user", logger.HashUserID(userKey(tgUserID)))

	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.Voice != nil {
			event = event.Str("type", "voice").Int("duration", msg.Voice.Duration)
		} else {
			first, _, _ := strings.Cut(msg.Text, " ")
			if strings.HasPrefix(first, "/") {
				event = event.Str("command", first)
			} else {
				event = event.Str("text", logger.SanitizeText(msg.Text))
			}
		}
		event.Msg("User input")

	case update.CallbackQuery != nil:
		event.Str("data", update.CallbackQuery.Data).Msg("Callback query")
	}
}

func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// userKey is the ledger user ID of a Telegram account.
func userKey(tgUserID int64) string {
	return "tg:" + strconv.FormatInt(tgUserID, 10)
}

// ensureProfile creates a profile named after the Telegram account the first
// time a user talks to the bot.
func (b *Bot) ensureProfile(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User
	switch {
	case update.Message != nil && update.Message.From != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	default:
		return nil
	}

	userID := userKey(from.ID)
	_, err := b.profiles.Get(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if err := b.profiles.Set(ctx, &models.UserProfile{
		UserID:          userID,
		FullName:        fullName,
		WhatDoWeCallYou: from.FirstName,
	}); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Msg("Profile created")
	return nil
}

// defaultHandler treats any other text as a transaction phrase.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "I don't know that command. Use /help to see what I can do.",
		})
		return
	}

	if b.handleFreeTextCore(ctx, tg, update) {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands, or send something like <code>spent 12.50 on food with cash</code>",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
