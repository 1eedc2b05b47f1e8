package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/bot/handlers"
	"github.com/filerelay/filerelay/internal/database"
)

// Client implements handlers.Messenger on top of the go-telegram/bot API
// client. Every outgoing call gets its own timeout so one slow request
// cannot stall handler dispatch.
//
// Searches are served from the local channel message index: bot tokens
// have no server-side search, so the bot indexes posts it sees as a
// channel administrator and queries that index instead.
type Client struct {
	bot     *bot.Bot
	store   database.Store
	logger  *slog.Logger
	timeout time.Duration
	selfID  int64
}

// NewClient creates the Messenger adapter. The bot instance is attached
// later with Bind because handler wiring happens before the bot exists.
func NewClient(store database.Store, logger *slog.Logger, timeout time.Duration) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:   store,
		logger:  logger.With("component", "telegram_client"),
		timeout: timeout,
	}
}

// Bind attaches the bot instance and its own user ID as returned by
// GetMe. Must be called before the bot starts receiving updates.
func (c *Client) Bind(b *bot.Bot, selfID int64) {
	c.bot = b
	c.selfID = selfID
}

var _ handlers.Messenger = (*Client)(nil)

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// SendMessage sends a text message to the given chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// EditMessageText replaces the text and keyboard of an existing message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// ForwardMessage forwards a message from one chat to another.
func (c *Client) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.bot.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to forward message %d from chat %d: %w", messageID, fromChatID, err)
	}
	return nil
}

// AnswerCallbackQuery acknowledges a button press, optionally with a
// short notification text.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", callbackQueryID, err)
	}
	return nil
}

// ValidateChannelMembership verifies that the chat is a channel or
// supergroup and that the bot is one of its administrators. A channel
// the bot cannot administer cannot be indexed, so it is rejected at
// registration time.
func (c *Client) ValidateChannelMembership(ctx context.Context, channelID int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	chat, err := c.bot.GetChat(ctx, &bot.GetChatParams{ChatID: channelID})
	if err != nil {
		return fmt.Errorf("failed to get chat %d: %w", channelID, err)
	}
	if chat.Type != models.ChatTypeChannel && chat.Type != models.ChatTypeSupergroup {
		return fmt.Errorf("chat %d is a %s, not a channel or supergroup", channelID, chat.Type)
	}

	admins, err := c.bot.GetChatAdministrators(ctx, &bot.GetChatAdministratorsParams{ChatID: channelID})
	if err != nil {
		return fmt.Errorf("failed to get administrators of chat %d: %w", channelID, err)
	}
	for _, member := range admins {
		if memberUserID(member) == c.selfID {
			return nil
		}
	}
	return fmt.Errorf("bot is not an administrator of chat %d", channelID)
}

// SearchMessages queries the local channel message index.
func (c *Client) SearchMessages(ctx context.Context, channelID int64, query string, limit int) ([]handlers.FileResult, error) {
	rows, err := c.store.SearchChannelMessages(ctx, channelID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search channel %d: %w", channelID, err)
	}

	results := make([]handlers.FileResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, handlers.FileResult{
			ChannelID: row.ChannelID,
			MessageID: row.MessageID,
			FileName:  row.FileName,
			FileSize:  row.FileSize,
		})
	}
	return results, nil
}

func memberUserID(m models.ChatMember) int64 {
	switch {
	case m.Owner != nil && m.Owner.User != nil:
		return m.Owner.User.ID
	case m.Administrator != nil:
		return m.Administrator.User.ID
	}
	return 0
}
