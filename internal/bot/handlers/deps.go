// Package handlers contains Telegram bot command, message, and callback
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/config"
	"github.com/filerelay/filerelay/internal/database"
)

// FileResult is one match produced by a storage channel search.
// An empty FileName or zero FileSize means the value is unknown.
type FileResult struct {
	ChannelID int64
	MessageID int
	FileName  string
	FileSize  int64
}

// Messenger is the transport surface the handlers depend on. The
// production implementation lives in internal/telegram; tests substitute
// a fake.
type Messenger interface {
	// SendMessage sends text (with an optional inline keyboard) to a chat.
	SendMessage(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error

	// EditMessageText edits a previously sent message in place.
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error

	// ForwardMessage re-delivers an existing channel message to a chat.
	ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error

	// AnswerCallbackQuery acknowledges a button press.
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error

	// ValidateChannelMembership verifies the chat is a channel or
	// supergroup and that the bot is one of its administrators.
	ValidateChannelMembership(ctx context.Context, channelID int64) error

	// SearchMessages returns up to limit messages in channelID matching
	// query, in transport-provided order.
	SearchMessages(ctx context.Context, channelID int64, query string, limit int) ([]FileResult, error)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Messenger Messenger
}
