package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/database"
)

// NewChannelPostHandler returns the indexer for storage channel posts.
// The Bot API has no server-side message search, so the bot keeps a local
// index of posts in registered channels and serves searches from it.
func NewChannelPostHandler(deps HandlerDeps) bot.HandlerFunc {
	return channelPostHandler{deps}.Handle
}

type channelPostHandler struct {
	deps HandlerDeps
}

func (h channelPostHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "channel_post")

	post := update.ChannelPost
	if post == nil {
		return
	}

	registered, err := h.deps.Store.ChannelExists(ctx, post.Chat.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check channel registration", "error", err, "channel_id", post.Chat.ID)
		return
	}
	if !registered {
		log.DebugContext(ctx, "Ignoring post from unregistered channel", "channel_id", post.Chat.ID)
		return
	}

	msg := &database.ChannelMessage{
		ChannelID: post.Chat.ID,
		MessageID: post.ID,
		Caption:   post.Caption,
		PostedAt:  time.Unix(int64(post.Date), 0).UTC(),
	}
	if msg.Caption == "" {
		msg.Caption = post.Text
	}
	if post.Document != nil {
		msg.FileName = post.Document.FileName
		msg.FileSize = post.Document.FileSize
	}

	if err := h.deps.Store.IndexChannelMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "Failed to index channel post", "error", err, "channel_id", post.Chat.ID, "message_id", post.ID)
		return
	}
	log.DebugContext(ctx, "Indexed channel post", "channel_id", post.Chat.ID, "message_id", post.ID, "file_name", msg.FileName)
}
