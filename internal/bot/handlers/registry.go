package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler represents a handler with its registration data and
// middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all explicitly
// registered handlers. Free text, forwards, and channel posts go through
// the default handler (NewRouterHandler).
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/admin"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "admin",
		Handler:     NewAdminHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  []tgbot.Middleware{AdminOnly(deps)},
	}
	handlers["callback"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}

// NewRouterHandler returns the default handler: it routes channel posts to
// the index, forwarded private messages to channel registration, and any
// other private text to the search pipeline.
func NewRouterHandler(deps HandlerDeps) tgbot.HandlerFunc {
	channelPosts := NewChannelPostHandler(deps)
	forwards := NewForwardHandler(deps)
	search := NewSearchHandler(deps)

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		switch {
		case update.ChannelPost != nil:
			channelPosts(ctx, b, update)

		case update.Message != nil && update.Message.ForwardOrigin != nil:
			forwards(ctx, b, update)

		case update.Message != nil && update.Message.Text != "":
			search(ctx, b, update)
		}
	}
}
