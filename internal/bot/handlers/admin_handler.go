package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewAdminHandler returns a handler for the /admin command. It is
// registered behind the AdminOnly middleware.
func NewAdminHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminHandler{deps}.Handle
}

type adminHandler struct {
	deps HandlerDeps
}

func (h adminHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Admin handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /admin command", "chat_id", chatID, "user_id", userID)

	if err := h.deps.Messenger.SendMessage(ctx, chatID, h.deps.Config.Messages.AdminPanel, adminMenu()); err != nil {
		log.ErrorContext(ctx, "Failed to send admin panel", "error", err, "chat_id", chatID)
		return
	}
	logActivity(ctx, h.deps, userID, "admin_panel_access", "Admin accessed the panel")
}
