package handlers

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/database"
)

// adminMenu is the top-level admin panel keyboard.
func adminMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📢 Broadcast", CallbackData: AdminAction{Kind: AdminBroadcast}.Encode()},
				{Text: "📊 Stats", CallbackData: AdminAction{Kind: AdminStats}.Encode()},
			},
			{
				{Text: "📂 Add File", CallbackData: AdminAction{Kind: AdminAddFile}.Encode()},
				{Text: "🗃 View Logs", CallbackData: AdminAction{Kind: AdminRequestLogs}.Encode()},
			},
			{
				{Text: "🚫 User Management", CallbackData: AdminAction{Kind: AdminUsers}.Encode()},
			},
			{
				{Text: "📚 Manage Storage Channels", CallbackData: AdminAction{Kind: AdminChannels}.Encode()},
			},
			{
				{Text: "📜 View Activity Logs", CallbackData: AdminAction{Kind: AdminActivityLogs}.Encode()},
			},
		},
	}
}

// channelsMenu lists registered channels plus add/back controls.
func channelsMenu(channels []database.StorageChannel) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, ch := range channels {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("Channel %d", ch.ChannelID),
			CallbackData: ChannelAction{Kind: ChannelView, ChannelID: ch.ChannelID}.Encode(),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "➕ Add Storage Channel",
		CallbackData: ChannelAction{Kind: ChannelAddPrompt}.Encode(),
	}})
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "⬅️ Back to Admin Menu",
		CallbackData: ChannelAction{Kind: ChannelBack}.Encode(),
	}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// channelDetailsMenu shows actions for a single channel.
func channelDetailsMenu(channelID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🗑️ Remove Channel", CallbackData: ChannelAction{Kind: ChannelRemove, ChannelID: channelID}.Encode()},
			},
			{
				{Text: "⬅️ Back to Channels", CallbackData: AdminAction{Kind: AdminChannels}.Encode()},
			},
		},
	}
}

// resultsKeyboard renders one selectable row per search match, labeled
// with the file name (or "Unknown") and size in MB (or "N/A").
func resultsKeyboard(results []FileResult) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(results))
	for _, r := range results {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         resultLabel(r),
			CallbackData: RequestAction{ChannelID: r.ChannelID, MessageID: r.MessageID}.Encode(),
		}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func resultLabel(r FileResult) string {
	name := r.FileName
	if name == "" {
		name = "Unknown"
	}
	size := "N/A"
	if r.FileSize > 0 {
		size = fmt.Sprintf("%.2f MB", float64(r.FileSize)/1024/1024)
	}
	return fmt.Sprintf("%s (%s)", name, size)
}
