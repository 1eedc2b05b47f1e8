package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. The first user
// ever to issue /start becomes the admin; everyone after that gets the
// regular welcome (or the admin menu if they are the admin).
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", userID)

	becameAdmin, err := h.deps.Store.BootstrapAdmin(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Admin bootstrap failed", "error", err, "user_id", userID)
		h.reply(ctx, chatID, msgs.GeneralError, nil)
		return
	}

	if becameAdmin {
		h.reply(ctx, chatID, msgs.AdminBootstrapped, nil)
		return
	}

	if isAdmin(ctx, h.deps, userID) {
		h.reply(ctx, chatID, msgs.WelcomeAdmin, adminMenu())
		return
	}

	h.reply(ctx, chatID, msgs.Welcome, nil)
	logActivity(ctx, h.deps, userID, "user_start", "User started the bot")
}

func (h startHandler) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := h.deps.Messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send start reply", "error", err, "chat_id", chatID)
	}
}
