package bot

import (
	"context"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expenditure-manager/internal/bot/mocks"
)

func TestCommandMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		text    string
		want    bool
	}{
		{"/add", "/add spent 5", true},
		{"/add", "/add", true},
		{"/add", "/add@expense_bot spent 5", true},
		{"/add", "/addcard a|b|c|d", false},
		{"/addcard", "/addcard a|b|c|d", true},
		{"/threshold", "/threshold check", true},
		{"/threshold", "/setthreshold 1 2 3", false},
		{"/help", "help", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			update := mocks.MessageUpdate(1, 2, tt.text)
			require.Equal(t, tt.want, commandMatcher(tt.command)(update))
		})
	}

	require.False(t, commandMatcher("/help")(&tgmodels.Update{}))
}

func TestIsVoiceMessage(t *testing.T) {
	t.Parallel()

	require.True(t, isVoiceMessage(mocks.VoiceUpdate(1, 2, "f", 3)))
	require.False(t, isVoiceMessage(mocks.MessageUpdate(1, 2, "hi")))
	require.False(t, isVoiceMessage(&tgmodels.Update{}))
}

func TestAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks non-whitelisted user", func(t *testing.T) {
		b, stores := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		ok := b.allow(ctx, mockBot, mocks.MessageUpdate(testChatID, 999, "/balance"))

		require.False(t, ok)
		require.Equal(t, 1, mockBot.SentMessageCount())
		require.Contains(t, mockBot.LastSentMessage().Text, "not authorized")
		require.Empty(t, stores.profiles)
	})

	t.Run("ignores updates without a sender", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		require.False(t, b.allow(ctx, mockBot, &tgmodels.Update{}))
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("whitelisted by username", func(t *testing.T) {
		b, _ := setupTestBot(t)
		b.cfg.WhitelistedUsernames = []string{"friend"}
		update := mocks.NewUpdateBuilder().
			WithMessage(testChatID, 555, "/help").
			WithFrom(555, "@Friend", "F", "").
			Build()

		require.True(t, b.allow(ctx, mocks.NewMockBot(), update))
	})

	t.Run("bootstraps profile once", func(t *testing.T) {
		b, stores := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		require.True(t, b.allow(ctx, mockBot, mocks.MessageUpdate(testChatID, testTGUserID, "/start")))
		p := stores.profiles[testUserID]
		require.Equal(t, "Test User", p.FullName)
		require.Equal(t, "Test", p.WhatDoWeCallYou)

		p.WhatDoWeCallYou = "Boss"
		stores.profiles[testUserID] = p
		require.True(t, b.allow(ctx, mockBot, mocks.CallbackQueryUpdate(testChatID, testTGUserID, 1, draftSaveCallback)))
		require.Equal(t, "Boss", stores.profiles[testUserID].WhatDoWeCallYou)
		require.Equal(t, 0, mockBot.SentMessageCount())
	})
}

func TestDefaultHandlerCore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown command", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.defaultHandlerCore(ctx, mockBot, mocks.MessageUpdate(testChatID, testTGUserID, "/frobnicate"))

		require.Contains(t, mockBot.LastSentMessage().Text, "don't know that command")
	})

	t.Run("text without an amount", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.defaultHandlerCore(ctx, mockBot, mocks.MessageUpdate(testChatID, testTGUserID, "hello there"))

		require.Contains(t, mockBot.LastSentMessage().Text, "I didn't understand that")
		_, ok := b.drafts.get(testChatID)
		require.False(t, ok)
	})

	t.Run("text with an amount starts a draft", func(t *testing.T) {
		b, _ := setupTestBot(t)
		seedSetup(t, b)
		mockBot := mocks.NewMockBot()

		b.defaultHandlerCore(ctx, mockBot, mocks.MessageUpdate(testChatID, testTGUserID, "spent 9 on food with visa"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Draft Transaction")
		_, ok := b.drafts.get(testChatID)
		require.True(t, ok)
	})

	t.Run("blank and nil messages are ignored", func(t *testing.T) {
		b, _ := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.defaultHandlerCore(ctx, mockBot, &tgmodels.Update{})
		b.defaultHandlerCore(ctx, mockBot, mocks.MessageUpdate(testChatID, testTGUserID, "   "))

		require.Equal(t, 0, mockBot.SentMessageCount())
	})
}

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "weekly", extractCommandArgs("/summary weekly", "/summary"))
	require.Equal(t, "weekly", extractCommandArgs("/summary@expense_bot weekly", "/summary"))
	require.Equal(t, "", extractCommandArgs("/summary@expense_bot", "/summary"))
	require.Equal(t, "", extractCommandArgs("/summary", "/summary"))
}

func TestUserKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, "tg:42", userKey(42))
}
