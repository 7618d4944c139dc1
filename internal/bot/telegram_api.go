package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/expenditure-manager/internal/bot/mocks"
)

// TelegramAPI is the subset of the Telegram client the handlers call. It is
// declared in mocks so the recording fake can live there without a cycle.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
