package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSearchHandler returns the free-text query handler: it validates the
// query, fans it out across every registered storage channel, and renders
// the matches as a selectable keyboard.
func NewSearchHandler(deps HandlerDeps) bot.HandlerFunc {
	return searchHandler{deps}.Handle
}

type searchHandler struct {
	deps HandlerDeps
}

func (h searchHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "search")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages
	query := strings.TrimSpace(update.Message.Text)

	if utf8.RuneCountInString(query) < h.deps.Config.Search.MinQueryLength {
		h.reply(ctx, chatID, msgs.QueryTooShort, nil)
		logActivity(ctx, h.deps, userID, "invalid_query", "Query too short")
		return
	}

	if banned := matchBannedWord(query, h.deps.Config.Search.BannedWords); banned != "" {
		h.reply(ctx, chatID, msgs.QueryInvalid, nil)
		logActivity(ctx, h.deps, userID, "invalid_query", "Query contains banned words")
		return
	}

	h.reply(ctx, chatID, msgs.Searching, nil)
	logActivity(ctx, h.deps, userID, "search_files", "User searched for: "+query)

	channels, err := h.deps.Store.ListChannels(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list storage channels", "error", err)
		h.reply(ctx, chatID, msgs.GeneralError, nil)
		return
	}
	if len(channels) == 0 {
		h.reply(ctx, chatID, msgs.NoChannels, nil)
		logActivity(ctx, h.deps, userID, "no_channels", "No storage channels available")
		return
	}

	// Results are concatenated in registry insertion order; within a
	// channel the transport's own ordering is kept. No dedup, no ranking.
	var results []FileResult
	for _, ch := range channels {
		found, err := h.deps.Messenger.SearchMessages(ctx, ch.ChannelID, query, h.deps.Config.Search.PerChannelLimit)
		if err != nil {
			log.ErrorContext(ctx, "Channel search failed", "channel_id", ch.ChannelID, "error", err)
			logActivity(ctx, h.deps, userID, "error", fmt.Sprintf("Search failed in channel %d: %v", ch.ChannelID, err))
			continue
		}
		results = append(results, found...)
	}

	if len(results) == 0 {
		h.reply(ctx, chatID, msgs.NoResults, nil)
		logActivity(ctx, h.deps, userID, "no_results", "No files found for query: "+query)
		return
	}

	h.reply(ctx, chatID, fmt.Sprintf(msgs.FoundFiles, query), resultsKeyboard(results))
}

func (h searchHandler) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := h.deps.Messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send search reply", "error", err, "chat_id", chatID)
	}
}

// matchBannedWord returns the first denylist entry contained in the query
// (case-insensitive), or "" when the query is clean.
func matchBannedWord(query string, banned []string) string {
	lower := strings.ToLower(query)
	for _, word := range banned {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return word
		}
	}
	return ""
}

// queryFromResultsText recovers the original query embedded in a results
// message, so delivery can persist it on the Request row.
func queryFromResultsText(text string) string {
	start := strings.Index(text, `"`)
	end := strings.LastIndex(text, `"`)
	if start < 0 || end <= start {
		return ""
	}
	return text[start+1 : end]
}
