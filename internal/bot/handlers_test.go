package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expenditure-manager/internal/bot/mocks"
	"gitlab.com/yelinaung/expenditure-manager/internal/exchange"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

const nilMessageReturnsEarly = "nil message returns early"

func addTxn(t *testing.T, b *Bot, typ models.TransactionType, amount, category string) {
	t.Helper()
	d := decimal.RequireFromString(amount)
	_, err := b.ledger.AddTransaction(context.Background(), testUserID, ledger.NewTransaction{
		Amount:       &d,
		Type:         typ,
		Category:     category,
		Description:  "test " + strings.ToLower(category),
		CardOrWallet: "Visa",
		Date:         refNow.Add(-time.Hour),
	})
	require.NoError(t, err)
}

func TestCommandHandlers_NilMessage(t *testing.T) {
	b, _ := setupTestBot(t)
	ctx := context.Background()
	mockBot := mocks.NewMockBot()
	update := &tgmodels.Update{}

	handlers := []func(context.Context, TelegramAPI, *tgmodels.Update){
		b.handleStartCore, b.handleHelpCore, b.handleBalanceCore, b.handleSummaryCore,
		b.handleChartCore, b.handlePieCore, b.handleHistoryCore, b.handleExportCore,
		b.handleNotificationsCore, b.handleProfileCore, b.handleSetNameCore,
		b.handleCardsCore, b.handleAddCardCore, b.handleCategoriesCore, b.handleAddCategoryCore,
		b.handleThresholdCore, b.handleSetThresholdCore, b.handleAddCore, b.handleVoiceCore,
		b.handleDraftCallbackCore,
	}
	t.Run(nilMessageReturnsEarly, func(t *testing.T) {
		for _, h := range handlers {
			h(ctx, mockBot, update)
		}
		require.Equal(t, 0, mockBot.SentMessageCount())
	})
}

func TestHandleStartCore(t *testing.T) {
	b, stores := setupTestBot(t)
	ctx := context.Background()
	stores.profiles[testUserID] = models.UserProfile{UserID: testUserID, WhatDoWeCallYou: "Ann <3"}
	mockBot := mocks.NewMockBot()

	b.handleStartCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/start"))

	msg := mockBot.LastSentMessage()
	require.Contains(t, msg.Text, "Welcome, Ann &lt;3!")
	require.Equal(t, tgmodels.ParseModeHTML, msg.ParseMode)
}

func TestHandleHelpCore(t *testing.T) {
	b, _ := setupTestBot(t)
	mockBot := mocks.NewMockBot()

	b.handleHelpCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/help"))

	text := mockBot.LastSentMessage().Text
	for _, cmd := range []string{"/add", "/balance", "/summary", "/chart", "/pie", "/history", "/export",
		"/addcard", "/addcategory", "/threshold", "/setthreshold", "/profile", "/setname", "/notifications"} {
		require.Contains(t, text, cmd)
	}
}

func TestHandleBalanceCore(t *testing.T) {
	ctx := context.Background()

	t.Run("income minus expense", func(t *testing.T) {
		b, _ := setupTestBot(t)
		seedSetup(t, b)
		addTxn(t, b, models.TypeIncome, "100", "Salary")
		addTxn(t, b, models.TypeExpense, "120.50", "Food")
		mockBot := mocks.NewMockBot()

		b.handleBalanceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/balance"))

		require.Contains(t, mockBot.LastSentMessage().Text, "-$20.50")
	})

	t.Run("store failure", func(t *testing.T) {
		b, stores := setupTestBot(t)
		stores.listErr = errors.New("db down")
		mockBot := mocks.NewMockBot()

		b.handleBalanceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/balance"))

		require.Equal(t, genericErrorMsg, mockBot.LastSentMessage().Text)
	})

	t.Run("converted", func(t *testing.T) {
		b, _ := setupTestBot(t, ledger.WithRates(fixedRates{value: "0.9"}))
		seedSetup(t, b)
		addTxn(t, b, models.TypeIncome, "100", "Salary")
		mockBot := mocks.NewMockBot()

		b.handleBalanceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/balance eur"))

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "€90.00")
		require.Contains(t, text, "1 USD = 0.9 EUR")
	})

	t.Run("conversion not configured", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleBalanceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/balance EUR"))

		require.Equal(t, "❌ Currency conversion is not available.", mockBot.LastSentMessage().Text)
	})
}

type fixedRates struct {
	value string
}

func (f fixedRates) Rate(_ context.Context, from, to string) (exchange.Rate, error) {
	return exchange.Rate{From: from, To: to, Value: decimal.RequireFromString(f.value), Date: refNow}, nil
}

func TestHandleSummaryCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)
	seedSetup(t, b)
	addTxn(t, b, models.TypeIncome, "100", "Salary")
	addTxn(t, b, models.TypeExpense, "12.50", "Food")

	t.Run("defaults to monthly", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleSummaryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/summary"))

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "Monthly Summary")
		require.Contains(t, text, "Income: $100.00")
		require.Contains(t, text, "Expense: $12.50")
		require.Contains(t, text, "Food: $12.50")
		require.Contains(t, text, "Salary: $100.00")
	})

	t.Run("explicit period", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleSummaryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/summary week"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Weekly Summary")
	})

	t.Run("bad period", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleSummaryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/summary fortnight"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Unknown period")
	})
}

func TestHandleChartCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)
	seedSetup(t, b)
	addTxn(t, b, models.TypeExpense, "7", "Food")
	mockBot := mocks.NewMockBot()

	b.handleChartCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/chart daily"))

	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "Daily Chart")
	require.Contains(t, text, "Period")
	require.Contains(t, text, "Jun 17")
	require.Contains(t, text, "7.00")
	require.Equal(t, 7, strings.Count(text, "Jun "))
}

func TestHandlePieCore(t *testing.T) {
	ctx := context.Background()

	t.Run("no expenses", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePieCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/pie"))

		require.Contains(t, mockBot.LastSentMessage().Text, "No expenses found for monthly")
		require.Nil(t, mockBot.LastSentPhoto())
	})

	t.Run("sends png", func(t *testing.T) {
		b, _ := setupTestBot(t)
		seedSetup(t, b)
		addTxn(t, b, models.TypeExpense, "7", "Food")
		mockBot := mocks.NewMockBot()

		b.handlePieCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/pie monthly"))

		photo := mockBot.LastSentPhoto()
		require.NotNil(t, photo)
		require.True(t, strings.HasSuffix(photo.Filename, ".png"))
		require.Equal(t, []byte("\x89PNG"), photo.Data[:4])
		require.Contains(t, photo.Caption, "Monthly")
	})

	t.Run("send failure", func(t *testing.T) {
		b, _ := setupTestBot(t)
		seedSetup(t, b)
		addTxn(t, b, models.TypeExpense, "7", "Food")
		mockBot := mocks.NewMockBot()
		mockBot.SendPhotoError = errors.New("too large")

		b.handlePieCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/pie"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Failed to send chart")
	})
}

func TestHandleHistoryCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)

	mockBot := mocks.NewMockBot()
	b.handleHistoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/history"))
	require.Contains(t, mockBot.LastSentMessage().Text, "No transactions yet")

	seedSetup(t, b)
	for i := 0; i < HistoryLimit+2; i++ {
		addTxn(t, b, models.TypeExpense, "1", "Food")
	}
	addTxn(t, b, models.TypeIncome, "50", "Salary")

	mockBot = mocks.NewMockBot()
	b.handleHistoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/history"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "Recent Transactions")
	require.Contains(t, text, "and 3 more")

	mockBot = mocks.NewMockBot()
	b.handleHistoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/history salary"))
	text = mockBot.LastSentMessage().Text
	require.Contains(t, text, "+$50.00")
	require.NotContains(t, text, "test food")

	mockBot = mocks.NewMockBot()
	b.handleHistoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/history rent"))
	require.Contains(t, mockBot.LastSentMessage().Text, "No transactions match <b>rent</b>")
}

func TestHandleExportCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)
	seedSetup(t, b)
	addTxn(t, b, models.TypeExpense, "7", "Food")

	t.Run("sends csv", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleExportCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/export"))

		doc := mockBot.LastSentDocument()
		require.NotNil(t, doc)
		require.Equal(t, "transactions_2026-06-17.csv", doc.Filename)
		require.True(t, strings.HasPrefix(string(doc.Data), "ID,Date,Type,Amount,Currency,Description,Card,Category"))
		require.Contains(t, string(doc.Data), "test food")
	})

	t.Run("send failure", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		mockBot.SendDocumentError = errors.New("boom")
		b.handleExportCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/export"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Failed to send report")
	})
}

func TestHandleNotificationsCore(t *testing.T) {
	b, _ := setupTestBot(t)
	mockBot := mocks.NewMockBot()

	b.handleNotificationsCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/notifications"))

	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "+ 200$ From A · 2m ago")
	require.Contains(t, text, "- 500$ To E · 1w ago")
	require.Equal(t, 3, strings.Count(text, "🔴"))
	require.Equal(t, 2, strings.Count(text, "🟢"))
}

func TestHandleProfileAndSetName(t *testing.T) {
	ctx := context.Background()
	b, stores := setupTestBot(t)
	stores.profiles[testUserID] = models.UserProfile{UserID: testUserID, FullName: "Test User", WhatDoWeCallYou: "Test"}

	mockBot := mocks.NewMockBot()
	b.handleSetNameCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setname"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Usage")

	b.handleSetNameCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setname Captain"))
	require.Contains(t, mockBot.LastSentMessage().Text, "call you <b>Captain</b>")
	require.Equal(t, "Captain", stores.profiles[testUserID].WhatDoWeCallYou)

	b.handleProfileCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/profile"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "Name: Test User")
	require.Contains(t, text, "Call me: Captain")
	require.Contains(t, text, "Phone: —")
}

func TestHandleCardsCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)

	mockBot := mocks.NewMockBot()
	b.handleCardsCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/cards"))
	require.Contains(t, mockBot.LastSentMessage().Text, "No cards yet")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"valid card is masked", "/addcard DBS|4111 1111 1111 1234|Ann Lee|08/27", "Card <b>DBS</b> **** 1234 added"},
		{"wrong field count", "/addcard DBS|4111", "Usage"},
		{"bad expiry", "/addcard DBS|4111|Ann|2027-08", "Expiry must be in MM/YY format."},
		{"blank field", "/addcard DBS| |Ann|08/27", "Please fill all card details."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBot := mocks.NewMockBot()
			b.handleAddCardCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, tt.text))
			require.Contains(t, mockBot.LastSentMessage().Text, tt.want)
		})
	}

	mockBot = mocks.NewMockBot()
	b.handleCardsCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/cards"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "<b>DBS</b> **** 1234 · Ann Lee · exp 08/27")
	require.NotContains(t, text, "4111")
}

func TestHandleCategoriesCore(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)

	mockBot := mocks.NewMockBot()
	b.handleCategoriesCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/categories"))
	require.Contains(t, mockBot.LastSentMessage().Text, "No categories yet")

	b.handleAddCategoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/addcategory Eating Out #ff8800"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Category <b>Eating Out</b> created")

	b.handleAddCategoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/addcategory Travel"))
	b.handleAddCategoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/addcategory Bad #12"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Color must look like #RRGGBB.")
	b.handleAddCategoryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/addcategory"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Usage")

	b.handleCategoriesCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/categories"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "Eating Out <code>#FF8800</code>")
	require.Contains(t, text, "Travel <code>#00B140</code>")

	b.handleCategoriesCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/categories trav"))
	text = mockBot.LastSentMessage().Text
	require.Contains(t, text, "Travel")
	require.NotContains(t, text, "Eating Out")

	b.handleCategoriesCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/categories zzz"))
	require.Contains(t, mockBot.LastSentMessage().Text, "No categories match")
}

func TestThresholdHandlers(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBot(t)
	seedSetup(t, b)

	mockBot := mocks.NewMockBot()
	b.handleThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/threshold"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Daily: not set")

	b.handleSetThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setthreshold 10 $100 1000"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Spending limits saved")

	b.handleThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/threshold"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "Daily: $10.00")
	require.Contains(t, text, "Monthly: $100.00")
	require.Contains(t, text, "Yearly: $1000.00")

	addTxn(t, b, models.TypeExpense, "12.50", "Food")
	b.handleThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/threshold check"))
	text = mockBot.LastSentMessage().Text
	require.Contains(t, text, "⚠️ Daily: $12.50 of $10.00")
	require.Contains(t, text, "✅ Monthly: $12.50 of $100.00")

	b.handleSetThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setthreshold 1 2"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	b.handleSetThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setthreshold a b c"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	b.handleSetThresholdCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testTGUserID, "/setthreshold -1 2 3"))
	require.Contains(t, mockBot.LastSentMessage().Text, "Thresholds cannot be negative.")
}
