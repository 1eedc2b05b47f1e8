package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/database"
)

// NewForwardHandler returns the handler for forwarded messages: the admin
// registers a storage channel by forwarding any message out of it.
func NewForwardHandler(deps HandlerDeps) bot.HandlerFunc {
	return forwardHandler{deps}.Handle
}

type forwardHandler struct {
	deps HandlerDeps
}

func (h forwardHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "forward")

	if update.Message == nil || update.Message.From == nil || update.Message.ForwardOrigin == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	if !isAdmin(ctx, h.deps, userID) {
		h.reply(ctx, chatID, msgs.Unauthorized, nil)
		logActivity(ctx, h.deps, userID, "unauthorized_forward", "Non-admin attempted to forward a message")
		return
	}

	channelID, ok := forwardedChannelID(update.Message.ForwardOrigin)
	if !ok {
		h.reply(ctx, chatID, msgs.ForwardNotChannel, nil)
		logActivity(ctx, h.deps, userID, "invalid_forward", "Forwarded message not from a channel/supergroup")
		return
	}

	if err := h.deps.Messenger.ValidateChannelMembership(ctx, channelID); err != nil {
		log.WarnContext(ctx, "Channel membership validation failed", "channel_id", channelID, "error", err)
		h.reply(ctx, chatID, msgs.NotChannelAdmin, nil)
		// The raw transport cause goes to the audit trail under the system
		// actor; the admin-facing entry stays cause-free.
		logActivity(ctx, h.deps, 0, "error",
			fmt.Sprintf("Failed to validate channel %d: %v", channelID, err))
		logActivity(ctx, h.deps, userID, "channel_validation_failed",
			fmt.Sprintf("Bot is not admin of channel %d", channelID))
		return
	}

	err := h.deps.Store.AddChannel(ctx, channelID, userID)
	switch {
	case errors.Is(err, database.ErrChannelExists):
		h.reply(ctx, chatID, msgs.ChannelExists, nil)
		logActivity(ctx, h.deps, userID, "channel_already_added",
			fmt.Sprintf("Attempted to add channel %d again", channelID))
		return

	case err != nil:
		log.ErrorContext(ctx, "Failed to add storage channel", "error", err, "channel_id", channelID)
		h.reply(ctx, chatID, msgs.GeneralError, nil)
		return
	}

	channels, err := h.deps.Store.ListChannels(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list storage channels", "error", err)
		channels = nil
	}
	h.reply(ctx, chatID, fmt.Sprintf(msgs.ChannelAdded, channelID), channelsMenu(channels))
	logActivity(ctx, h.deps, userID, "add_channel", fmt.Sprintf("Admin added channel %d", channelID))
}

func (h forwardHandler) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := h.deps.Messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send forward reply", "error", err, "chat_id", chatID)
	}
}

// forwardedChannelID extracts the origin chat ID when the forward came
// from a channel or supergroup.
func forwardedChannelID(origin *models.MessageOrigin) (int64, bool) {
	switch origin.Type {
	case models.MessageOriginTypeChannel:
		if origin.MessageOriginChannel != nil {
			return origin.MessageOriginChannel.Chat.ID, true
		}
	case models.MessageOriginTypeChat:
		if origin.MessageOriginChat != nil && origin.MessageOriginChat.SenderChat.Type == models.ChatTypeSupergroup {
			return origin.MessageOriginChat.SenderChat.ID, true
		}
	}
	return 0, false
}
