// Package ledger is the application service behind every front end. It
// validates input, persists through the stores and runs the analytics
// over each user's transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/exchange"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger

// TransactionStore persists transactions.
type TransactionStore interface {
	Add(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context, userID string) ([]models.Transaction, error)
}

// CardStore persists cards.
type CardStore interface {
	Add(ctx context.Context, c *models.Card) error
	Set(ctx context.Context, c *models.Card) error
	List(ctx context.Context, userID string) ([]models.Card, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	Add(ctx context.Context, userID string, c *models.Category) error
	Set(ctx context.Context, userID string, c *models.Category) error
	List(ctx context.Context, userID string) ([]models.Category, error)
}

// ThresholdStore persists the per-user threshold singleton.
type ThresholdStore interface {
	Get(ctx context.Context, userID string) (*models.Threshold, error)
	Set(ctx context.Context, userID string, th models.Threshold) error
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, userID string, u models.ProfileUpdate) error
}

// Stores groups the persistence dependencies of a Service.
type Stores struct {
	Transactions TransactionStore
	Cards        CardStore
	Categories   CategoryStore
	Thresholds   ThresholdStore
	Profiles     ProfileStore
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for period windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone for calendar-based periods.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithRates enables converting balances into a display currency.
func WithRates(rates exchange.RateSource) Option {
	return func(s *Service) { s.rates = rates }
}

// Service implements the ledger operations for one store backend.
type Service struct {
	stores Stores
	now    func() time.Time
	loc    *time.Location
	rates  exchange.RateSource

	txCounter    metric.Int64Counter
	voiceCounter metric.Int64Counter
}

// NewService creates a new Service.
func NewService(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("gitlab.com/yelinaung/expenditure-manager/internal/ledger")
	s.txCounter, _ = meter.Int64Counter("ledger.transactions.created",
		metric.WithDescription("Transactions saved"))
	s.voiceCounter, _ = meter.Int64Counter("ledger.voice.parsed",
		metric.WithDescription("Voice commands parsed"))

	return s
}

// Now returns the current instant in the service's timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// NewTransaction is the input for AddTransaction.
type NewTransaction struct {
	Amount       *decimal.Decimal
	Type         models.TransactionType
	Category     string
	Description  string
	CardOrWallet string
	Currency     string
	Date         time.Time
	HeardText    string
}

// AddTransaction validates and stores a transaction. The named category is
// looked up and embedded by value.
func (s *Service) AddTransaction(ctx context.Context, userID string, in NewTransaction) (*models.Transaction, error) {
	if in.Amount == nil || in.Amount.IsNegative() {
		return nil, invalid("Please enter a valid amount.")
	}
	if !storable(*in.Amount) {
		return nil, invalid("Amounts take at most 2 decimal places and must be below 1,000,000,000,000.")
	}
	if strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.CardOrWallet) == "" {
		return nil, invalid("Please fill all fields correctly and select a card.")
	}
	if in.Type == "" {
		in.Type = models.TypeExpense
	}
	if in.Type != models.TypeExpense && in.Type != models.TypeIncome {
		return nil, invalid(fmt.Sprintf("Unknown transaction type %q.", in.Type))
	}

	category, err := s.findCategory(ctx, userID, in.Category)
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = s.Now()
	}
	currency := in.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	t := &models.Transaction{
		UserID:       userID,
		Description:  strings.TrimSpace(in.Description),
		Amount:       *in.Amount,
		Currency:     currency,
		Type:         in.Type,
		CardOrWallet: strings.TrimSpace(in.CardOrWallet),
		Category:     *category,
		Date:         date,
		HeardText:    in.HeardText,
	}

	if err := s.stores.Transactions.Add(ctx, t); err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to add transaction")
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}

	s.txCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(t.Type))))
	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Str("type", string(t.Type)).
		Str("description", logger.SanitizeDescription(t.Description)).
		Msg("Transaction added")

	return t, nil
}

func (s *Service) findCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	categories, err := s.stores.Categories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, strings.TrimSpace(name)) {
			return &categories[i], nil
		}
	}
	return nil, invalid(fmt.Sprintf("Category %q does not exist.", name))
}

// Transactions returns a user's transactions newest first. A non-empty
// query keeps those whose description or category name contains it,
// ignoring case.
func (s *Service) Transactions(ctx context.Context, userID, query string) ([]models.Transaction, error) {
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return SearchTransactions(txns, query), nil
}

// SearchTransactions filters by case-insensitive substring on description or category name.
func SearchTransactions(txns []models.Transaction, query string) []models.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return txns
	}
	out := make([]models.Transaction, 0, len(txns))
	for i := range txns {
		if strings.Contains(strings.ToLower(txns[i].Description), q) ||
			strings.Contains(strings.ToLower(txns[i].Category.Name), q) {
			out = append(out, txns[i])
		}
	}
	return out
}

// Summary aggregates a user's transactions for period.
func (s *Service) Summary(ctx context.Context, userID string, period models.Period) (analytics.Summary, error) {
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return analytics.Aggregate(txns, period, s.Now()), nil
}

// Chart buckets a user's transactions for period.
func (s *Service) Chart(ctx context.Context, userID string, period models.Period) ([]analytics.Bucket, error) {
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return analytics.Buckets(txns, period, s.Now()), nil
}

// CategoryPie renders the expense breakdown for period as a PNG.
func (s *Service) CategoryPie(ctx context.Context, userID string, period models.Period) ([]byte, error) {
	summary, err := s.Summary(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return analytics.RenderCategoryPie(summary)
}

// Balance is all-time income minus expense.
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transactions: %w", err)
	}
	return analytics.Balance(txns), nil
}

// ConvertedBalance is a balance shown in another currency.
type ConvertedBalance struct {
	Balance  decimal.Decimal
	Currency string
	Rate     exchange.Rate
}

// BalanceIn converts the balance into currency. The balance itself is
// computed as in Balance; only the displayed figure changes.
func (s *Service) BalanceIn(ctx context.Context, userID, currency string) (ConvertedBalance, error) {
	code, err := exchange.NormalizeCode(currency)
	if err != nil {
		return ConvertedBalance{}, invalid(fmt.Sprintf("%q is not a currency code.", currency))
	}
	if s.rates == nil && code != models.DefaultCurrency {
		return ConvertedBalance{}, invalid("Currency conversion is not available.")
	}

	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return ConvertedBalance{}, err
	}
	if code == models.DefaultCurrency {
		return ConvertedBalance{
			Balance:  balance,
			Currency: code,
			Rate:     exchange.Rate{From: code, To: code, Value: decimal.NewFromInt(1), Date: s.Now()},
		}, nil
	}

	rate, err := s.rates.Rate(ctx, models.DefaultCurrency, code)
	if errors.Is(err, exchange.ErrRateUnavailable) {
		return ConvertedBalance{}, invalid(fmt.Sprintf("No exchange rate for %s.", code))
	}
	if err != nil {
		return ConvertedBalance{}, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return ConvertedBalance{Balance: rate.Apply(balance), Currency: code, Rate: rate}, nil
}

// ExportCSV renders a user's full history as CSV.
func (s *Service) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return analytics.ExportCSV(txns)
}

var expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// AddCard validates and stores a new card.
func (s *Service) AddCard(ctx context.Context, userID string, c models.Card) (*models.Card, error) {
	if err := validateCard(&c); err != nil {
		return nil, err
	}
	c.UserID = userID
	if err := s.stores.Cards.Add(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to add card: %w", err)
	}
	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Str("card", logger.MaskCardNumber(c.CardNumber)).
		Msg("Card added")
	return &c, nil
}

// SetCard overwrites a card by ID.
func (s *Service) SetCard(ctx context.Context, userID string, c models.Card) (*models.Card, error) {
	if c.ID == "" {
		return nil, invalid("Card ID is required.")
	}
	if err := validateCard(&c); err != nil {
		return nil, err
	}
	c.UserID = userID
	if err := s.stores.Cards.Set(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to set card: %w", err)
	}
	return &c, nil
}

func validateCard(c *models.Card) error {
	c.BankName = strings.TrimSpace(c.BankName)
	c.CardNumber = strings.TrimSpace(c.CardNumber)
	c.HolderName = strings.TrimSpace(c.HolderName)
	c.Expiry = strings.TrimSpace(c.Expiry)

	if c.BankName == "" || c.CardNumber == "" || c.HolderName == "" || c.Expiry == "" {
		return invalid("Please fill all card details.")
	}
	if !expiryRegex.MatchString(c.Expiry) {
		return invalid("Expiry must be in MM/YY format.")
	}
	return nil
}

// Cards lists a user's cards.
func (s *Service) Cards(ctx context.Context, userID string) ([]models.Card, error) {
	cards, err := s.stores.Cards.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

var colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// AddCategory validates and stores a new category.
func (s *Service) AddCategory(ctx context.Context, userID string, c models.Category) (*models.Category, error) {
	if err := validateCategory(&c); err != nil {
		return nil, err
	}
	if err := s.stores.Categories.Add(ctx, userID, &c); err != nil {
		return nil, fmt.Errorf("failed to add category: %w", err)
	}
	return &c, nil
}

// SetCategory overwrites a category. Past transactions keep their copy.
func (s *Service) SetCategory(ctx context.Context, userID string, c models.Category) (*models.Category, error) {
	if c.ID == "" {
		return nil, invalid("Category ID is required.")
	}
	if err := validateCategory(&c); err != nil {
		return nil, err
	}
	if err := s.stores.Categories.Set(ctx, userID, &c); err != nil {
		return nil, fmt.Errorf("failed to set category: %w", err)
	}
	return &c, nil
}

func validateCategory(c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("Category name cannot be empty.")
	}
	if len(c.Name) > models.MaxCategoryNameLength {
		return invalid(fmt.Sprintf("Category name must be at most %d characters.", models.MaxCategoryNameLength))
	}
	if c.ColorHex == "" {
		c.ColorHex = models.DefaultCategoryColor
	}
	if !colorRegex.MatchString(c.ColorHex) {
		return invalid("Color must look like #RRGGBB.")
	}
	c.ColorHex = strings.ToUpper(c.ColorHex)
	return nil
}

// Categories lists a user's categories, filtered by name when query is set.
func (s *Service) Categories(ctx context.Context, userID, query string) ([]models.Category, error) {
	categories, err := s.stores.Categories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return categories, nil
	}
	out := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// maxAmount is the first value a DECIMAL(14, 2) column cannot hold.
var maxAmount = decimal.New(1, 12)

// storable reports whether d fits a DECIMAL(14, 2) column without rounding.
func storable(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxAmount) && d.Equal(d.Truncate(2))
}

// Thresholds returns a user's spend limits.
func (s *Service) Thresholds(ctx context.Context, userID string) (*models.Threshold, error) {
	th, err := s.stores.Thresholds.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thresholds: %w", err)
	}
	return th, nil
}

// SetThresholds overwrites a user's spend limits.
func (s *Service) SetThresholds(ctx context.Context, userID string, th models.Threshold) error {
	if th.Daily.IsNegative() || th.Monthly.IsNegative() || th.Yearly.IsNegative() {
		return invalid("Thresholds cannot be negative.")
	}
	if !storable(th.Daily) || !storable(th.Monthly) || !storable(th.Yearly) {
		return invalid("Thresholds take at most 2 decimal places and must be below 1,000,000,000,000.")
	}
	if err := s.stores.Thresholds.Set(ctx, userID, th); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}
	return nil
}

// CheckThresholds compares today, this month and this year's spending with
// the user's limits. Nothing is enforced; the result is only reported.
func (s *Service) CheckThresholds(ctx context.Context, userID string) ([]analytics.ThresholdStatus, analytics.SpendTotals, error) {
	th, err := s.Thresholds(ctx, userID)
	if err != nil {
		return nil, analytics.SpendTotals{}, err
	}
	txns, err := s.stores.Transactions.List(ctx, userID)
	if err != nil {
		return nil, analytics.SpendTotals{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	totals := analytics.ComputeSpendTotals(txns, s.Now())
	return analytics.CheckThresholds(totals, *th), totals, nil
}

// Profile returns a user's profile.
func (s *Service) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.stores.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID string, u models.ProfileUpdate) error {
	if u.Empty() {
		return invalid("Nothing to update.")
	}
	if err := s.stores.Profiles.Update(ctx, userID, u); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ParseCommand runs the voice parser against the user's own card and
// category names.
func (s *Service) ParseCommand(ctx context.Context, userID, text string) (voice.Command, error) {
	cards, err := s.stores.Cards.List(ctx, userID)
	if err != nil {
		return voice.Command{}, fmt.Errorf("failed to list cards: %w", err)
	}
	categories, err := s.stores.Categories.List(ctx, userID)
	if err != nil {
		return voice.Command{}, fmt.Errorf("failed to list categories: %w", err)
	}

	cardNames := make([]string, 0, len(cards))
	for _, c := range cards {
		cardNames = append(cardNames, c.BankName)
	}
	categoryNames := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryNames = append(categoryNames, c.Name)
	}

	cmd := voice.Parse(text, cardNames, categoryNames)
	s.voiceCounter.Add(ctx, 1)
	logger.Log.Debug().
		Str("user", logger.HashUserID(userID)).
		Str("text", logger.SanitizeText(text)).
		Bool("has_amount", cmd.Amount != nil).
		Bool("has_category", cmd.Category != nil).
		Msg("Voice command parsed")
	return cmd, nil
}

// DraftToTransaction converts a completed voice draft into AddTransaction input.
func DraftToTransaction(d *voice.Draft) NewTransaction {
	return NewTransaction{
		Amount:       d.Amount,
		Type:         d.Type,
		Category:     d.Category,
		Description:  d.Description,
		CardOrWallet: d.CardOrWallet,
		HeardText:    d.HeardText,
	}
}
