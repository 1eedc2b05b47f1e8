package handlers

import (
	"context"
	"errors"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/database"
)

// AdminOnly creates a middleware that checks whether the message sender is
// the bootstrapped admin. Unauthorized callers get a visible rejection and
// an unauthorized_access activity entry; processing stops there.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			userID := update.Message.From.ID
			if !isAdmin(ctx, deps, userID) {
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", update.Message.Chat.ID)

				if err := deps.Messenger.SendMessage(ctx, update.Message.Chat.ID, deps.Config.Messages.Unauthorized, nil); err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", update.Message.Chat.ID)
				}
				logActivity(ctx, deps, userID, "unauthorized_access", "Attempted to access admin panel")
				return
			}

			next(ctx, b, update)
		}
	}
}

// isAdmin reports whether userID is the bootstrapped admin. An unset admin
// means nobody is privileged yet.
func isAdmin(ctx context.Context, deps HandlerDeps, userID int64) bool {
	adminID, err := deps.Store.GetAdmin(ctx)
	if err != nil {
		if !errors.Is(err, database.ErrNoAdmin) {
			deps.Logger.ErrorContext(ctx, "Failed to resolve admin", "error", err)
		}
		return false
	}
	return userID == adminID
}

// logActivity appends an audit entry, logging (but not propagating) store
// failures so audit trouble never breaks user-facing flows.
func logActivity(ctx context.Context, deps HandlerDeps, userID int64, action, details string) {
	if err := deps.Store.LogActivity(ctx, userID, action, details); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to write activity log", "action", action, "error", err)
	}
}
