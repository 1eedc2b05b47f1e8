package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/database"
)

// NewCallbackHandler returns the handler for every button press. The
// opaque token is parsed once into an Action; admin and channel actions
// are role-gated before dispatch.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	if cb.Message.Message == nil {
		log.WarnContext(ctx, "Callback on inaccessible message", "callback_query_id", cb.ID)
		h.answer(ctx, cb.ID, "")
		return
	}

	userID := cb.From.ID

	action, err := ParseAction(cb.Data)
	if err != nil {
		log.WarnContext(ctx, "Unparseable callback data", "data", cb.Data, "user_id", userID)
		h.answer(ctx, cb.ID, "")
		return
	}

	switch a := action.(type) {
	case RequestAction:
		h.handleRequest(ctx, cb, a)

	case AdminAction:
		if !isAdmin(ctx, h.deps, userID) {
			h.answer(ctx, cb.ID, h.deps.Config.Messages.Unauthorized)
			logActivity(ctx, h.deps, userID, "unauthorized_action", "Attempted admin action")
			return
		}
		h.handleAdmin(ctx, cb, a.Kind)

	case ChannelAction:
		if !isAdmin(ctx, h.deps, userID) {
			h.answer(ctx, cb.ID, h.deps.Config.Messages.Unauthorized)
			logActivity(ctx, h.deps, userID, "unauthorized_channel_action", "Attempted channel management")
			return
		}
		h.handleChannel(ctx, cb, a)
	}
}

// handleRequest performs the rate-limit-gated delivery of a selected file.
// The order is fixed: consume quota, forward, then persist the Request row
// and the file_request activity entry.
func (h callbackHandler) handleRequest(ctx context.Context, cb *models.CallbackQuery, action RequestAction) {
	log := h.deps.Logger.With("handler", "callback", "action", "request")
	msgs := h.deps.Config.Messages
	userID := cb.From.ID
	chatID := cb.Message.Message.Chat.ID

	channelID := action.ChannelID
	if channelID == 0 {
		// Single-channel token shape: resolve against the registry.
		channels, err := h.deps.Store.ListChannels(ctx)
		if err != nil || len(channels) != 1 {
			log.ErrorContext(ctx, "Cannot resolve single-channel request token", "error", err, "channels", len(channels))
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		channelID = channels[0].ChannelID
	}

	rl := h.deps.Config.RateLimit
	allowed, err := h.deps.Store.CheckAndConsumeQuota(ctx, userID, time.Now().UTC(), rl.Window, rl.MaxRequests)
	if err != nil {
		log.ErrorContext(ctx, "Quota check failed", "error", err, "user_id", userID)
		h.answer(ctx, cb.ID, msgs.GeneralError)
		return
	}
	if !allowed {
		h.send(ctx, chatID, msgs.QuotaExceeded, nil)
		logActivity(ctx, h.deps, userID, "rate_limit_exceeded", "User exceeded hourly request limit")
		h.answer(ctx, cb.ID, "")
		return
	}

	if err := h.deps.Messenger.ForwardMessage(ctx, userID, channelID, action.MessageID); err != nil {
		log.ErrorContext(ctx, "Forward failed", "error", err, "channel_id", channelID, "message_id", action.MessageID)
		h.send(ctx, chatID, msgs.GeneralError, nil)
		h.answer(ctx, cb.ID, "")
		return
	}

	req := &database.Request{
		UserID:    userID,
		Query:     queryFromResultsText(cb.Message.Message.Text),
		ChannelID: channelID,
		MessageID: action.MessageID,
	}
	if err := h.deps.Store.SaveRequest(ctx, req); err != nil {
		log.ErrorContext(ctx, "Failed to save request record", "error", err, "user_id", userID)
	}
	logActivity(ctx, h.deps, userID, "file_request",
		fmt.Sprintf("Requested file from channel %d, message ID %d", channelID, action.MessageID))

	h.answer(ctx, cb.ID, msgs.FileForwarded)
}

func (h callbackHandler) handleAdmin(ctx context.Context, cb *models.CallbackQuery, kind AdminActionKind) {
	log := h.deps.Logger.With("handler", "callback", "action", string(kind))
	msgs := h.deps.Config.Messages
	adminID := cb.From.ID
	chatID := cb.Message.Message.Chat.ID
	messageID := cb.Message.Message.ID

	switch kind {
	case AdminStats:
		stats, err := h.deps.Store.CountStats(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to count stats", "error", err)
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		h.send(ctx, chatID, fmt.Sprintf("📊 Stats:\nTotal Users: %d\nTotal Requests: %d", stats.TotalUsers, stats.TotalRequests), nil)
		logActivity(ctx, h.deps, adminID, "view_stats", "Admin viewed bot stats")

	case AdminRequestLogs:
		requests, err := h.deps.Store.RecentRequests(ctx, 10)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read recent requests", "error", err)
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		text := "🗃 Recent Logs:\n"
		for _, r := range requests {
			text += fmt.Sprintf("User %d: %s at %s\n", r.UserID, r.Query, r.CreatedAt.Format(time.RFC3339))
		}
		h.send(ctx, chatID, text, nil)
		logActivity(ctx, h.deps, adminID, "view_request_logs", "Admin viewed request logs")

	case AdminActivityLogs:
		entries, err := h.deps.Store.RecentActivity(ctx, 10)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read recent activity", "error", err)
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		text := "📜 Activity Logs:\n"
		for _, e := range entries {
			text += fmt.Sprintf("User %d: %s - %s at %s\n", e.UserID, e.Action, e.Details, e.CreatedAt.Format(time.RFC3339))
		}
		h.send(ctx, chatID, text, nil)
		logActivity(ctx, h.deps, adminID, "view_activity_logs", "Admin viewed activity logs")

	case AdminAddFile:
		h.send(ctx, chatID, msgs.AddFilePrompt, nil)
		logActivity(ctx, h.deps, adminID, "add_file_prompt", "Admin prompted to add a file")

	case AdminBroadcast:
		h.send(ctx, chatID, msgs.BroadcastPrompt, nil)
		logActivity(ctx, h.deps, adminID, "broadcast_prompt", "Admin prompted to send a broadcast")

	case AdminUsers:
		h.send(ctx, chatID, msgs.UsersPlaceholder, nil)
		logActivity(ctx, h.deps, adminID, "user_management_access", "Admin accessed user management (not implemented)")

	case AdminChannels:
		channels, err := h.deps.Store.ListChannels(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list storage channels", "error", err)
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		h.edit(ctx, chatID, messageID, msgs.ManageChannels, channelsMenu(channels))
		logActivity(ctx, h.deps, adminID, "manage_channels", "Admin accessed manage channels menu")
	}

	h.answer(ctx, cb.ID, "")
}

func (h callbackHandler) handleChannel(ctx context.Context, cb *models.CallbackQuery, action ChannelAction) {
	log := h.deps.Logger.With("handler", "callback", "action", "channel_"+string(action.Kind))
	msgs := h.deps.Config.Messages
	adminID := cb.From.ID
	chatID := cb.Message.Message.Chat.ID
	messageID := cb.Message.Message.ID

	switch action.Kind {
	case ChannelAddPrompt:
		h.send(ctx, chatID, msgs.AddChannelPrompt, nil)
		logActivity(ctx, h.deps, adminID, "add_channel_prompt", "Admin prompted to add a storage channel")

	case ChannelBack:
		h.edit(ctx, chatID, messageID, msgs.AdminPanel, adminMenu())
		logActivity(ctx, h.deps, adminID, "back_to_admin", "Admin returned to admin menu")

	case ChannelView:
		h.edit(ctx, chatID, messageID, fmt.Sprintf("📚 Channel %d", action.ChannelID), channelDetailsMenu(action.ChannelID))
		logActivity(ctx, h.deps, adminID, "view_channel", fmt.Sprintf("Admin viewed channel %d", action.ChannelID))

	case ChannelRemove:
		if err := h.deps.Store.RemoveChannel(ctx, action.ChannelID, adminID); err != nil {
			log.ErrorContext(ctx, "Failed to remove channel", "error", err, "channel_id", action.ChannelID)
			h.answer(ctx, cb.ID, msgs.GeneralError)
			return
		}
		channels, err := h.deps.Store.ListChannels(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list storage channels", "error", err)
			channels = nil
		}
		h.edit(ctx, chatID, messageID, fmt.Sprintf(msgs.ChannelRemoved, action.ChannelID), channelsMenu(channels))
		logActivity(ctx, h.deps, adminID, "remove_channel", fmt.Sprintf("Admin removed channel %d", action.ChannelID))
	}

	h.answer(ctx, cb.ID, "")
}

func (h callbackHandler) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := h.deps.Messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send callback reply", "error", err, "chat_id", chatID)
	}
}

func (h callbackHandler) edit(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	if err := h.deps.Messenger.EditMessageText(ctx, chatID, messageID, text, markup); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (h callbackHandler) answer(ctx context.Context, callbackID, text string) {
	if err := h.deps.Messenger.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", callbackID)
	}
}
