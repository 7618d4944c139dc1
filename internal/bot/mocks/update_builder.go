package mocks

import (
	"github.com/go-telegram/bot/models"
)

// UpdateBuilder helps construct test Update objects.
type UpdateBuilder struct {
	update *models.Update
}

// NewUpdateBuilder creates a new UpdateBuilder.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{
		update: &models.Update{},
	}
}

func testUser(userID int64) models.User {
	return models.User{
		ID:        userID,
		FirstName: "Test",
		LastName:  "User",
		Username:  "testuser",
	}
}

// WithMessage sets a private-chat text message on the update.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	from := testUser(userID)
	b.update.Message = &models.Message{
		ID: 1,
		Chat: models.Chat{
			ID:   chatID,
			Type: "private",
		},
		From: &from,
		Text: text,
	}
	return b
}

// WithMessageID sets a custom message ID.
func (b *UpdateBuilder) WithMessageID(messageID int) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.ID = messageID
	}
	return b
}

// WithFrom sets custom user details on the message or callback query.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName, lastName string) *UpdateBuilder {
	user := models.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if b.update.Message != nil {
		b.update.Message.From = &user
	}
	if b.update.CallbackQuery != nil {
		b.update.CallbackQuery.From = user
	}
	return b
}

// WithCallbackQuery sets an inline-button press on the update.
func (b *UpdateBuilder) WithCallbackQuery(
	callbackID string,
	chatID, userID int64,
	messageID int,
	data string,
) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   callbackID,
		From: testUser(userID),
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{
				ID: messageID,
				Chat: models.Chat{
					ID:   chatID,
					Type: "private",
				},
			},
		},
		Data: data,
	}
	return b
}

// WithVoice attaches a voice note, creating an empty message if needed.
func (b *UpdateBuilder) WithVoice(fileID string, duration int) *UpdateBuilder {
	if b.update.Message == nil {
		b.WithMessage(0, 0, "")
	}
	b.update.Message.Voice = &models.Voice{
		FileID:       fileID,
		FileUniqueID: fileID + "_unique",
		Duration:     duration,
		MimeType:     "audio/ogg",
	}
	return b
}

// Build returns the constructed Update.
func (b *UpdateBuilder) Build() *models.Update {
	return b.update
}

// MessageUpdate creates a simple message update.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, text).
		Build()
}

// CommandUpdate creates a command message update.
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}

// CallbackQueryUpdate creates a callback query update.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().
		WithCallbackQuery("callback-query-id", chatID, userID, messageID, data).
		Build()
}

// VoiceUpdate creates a voice message update.
func VoiceUpdate(chatID, userID int64, fileID string, duration int) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, "").
		WithVoice(fileID, duration).
		Build()
}
