package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultDBPath = "filerelay.db"

	DefaultServerAddr = ":8000"

	DefaultTelegramRequestTimeout = 30 * time.Second

	DefaultRateLimitWindow      = time.Hour
	DefaultRateLimitMaxRequests = 5

	DefaultSearchMinQueryLength  = 3
	DefaultSearchPerChannelLimit = 10
)

// DefaultBannedWords is the static denylist applied to search queries as a
// case-insensitive substring match.
var DefaultBannedWords = []string{"spam", "hack", "illegal"}

// DefaultMessages mirrors the reply texts users and the admin see.
var DefaultMessages = MessagesConfig{
	Welcome:           "Welcome! Send a keyword to search for files.",
	WelcomeAdmin:      "Welcome, Admin!",
	AdminBootstrapped: "🎉 You are now the admin of this bot!\nLet's set up the bot. Please forward a message from a channel where I am an admin to add it as a storage channel.",
	AdminPanel:        "Admin Panel",
	Unauthorized:      "🚫 Unauthorized.",
	QueryTooShort:     "⚠️ Query must be at least 3 characters long.",
	QueryInvalid:      "🚫 Invalid query.",
	Searching:         "🔍 Searching for files...",
	NoChannels:        "🚫 No storage channels configured. Please contact the admin.",
	FoundFiles:        "📄 Found files for \"%s\":",
	NoResults:         "🚫 No files found. Try a different keyword.",
	QuotaExceeded:     "⚠️ You've reached your hourly limit. Try again later.",
	FileForwarded:     "File forwarded!",
	GeneralError:      "❌ Something went wrong. Please try again later.",
	ForwardNotChannel: "🚫 Please forward a message from a channel or supergroup.",
	NotChannelAdmin:   "🚫 I am not an admin of this channel. Please add me as an admin first.",
	ChannelAdded:      "📚 Channel %d added successfully.",
	ChannelExists:     "🚫 This channel is already added.",
	ChannelRemoved:    "📚 Channel %d removed successfully.",
	AddChannelPrompt:  "📚 Please forward a message from the channel you want to add as a storage channel. I need to be an admin of that channel.",
	AddFilePrompt:     "📂 Please upload a file.",
	BroadcastPrompt:   "📢 Enter the broadcast message:",
	UsersPlaceholder:  "🚫 User Management: Not implemented yet.",
	ManageChannels:    "📚 Manage Storage Channels",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Registered empty so the BOT_TELEGRAM_TOKEN env override is visible
	// to Unmarshal; validation still rejects a missing token.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("server.addr", DefaultServerAddr)

	v.SetDefault("rate_limit.window", DefaultRateLimitWindow)
	v.SetDefault("rate_limit.max_requests", DefaultRateLimitMaxRequests)

	v.SetDefault("search.min_query_length", DefaultSearchMinQueryLength)
	v.SetDefault("search.per_channel_limit", DefaultSearchPerChannelLimit)
	v.SetDefault("search.banned_words", DefaultBannedWords)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.welcome_admin", DefaultMessages.WelcomeAdmin)
	v.SetDefault("messages.admin_bootstrapped", DefaultMessages.AdminBootstrapped)
	v.SetDefault("messages.admin_panel", DefaultMessages.AdminPanel)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.query_too_short", DefaultMessages.QueryTooShort)
	v.SetDefault("messages.query_invalid", DefaultMessages.QueryInvalid)
	v.SetDefault("messages.searching", DefaultMessages.Searching)
	v.SetDefault("messages.no_channels", DefaultMessages.NoChannels)
	v.SetDefault("messages.found_files", DefaultMessages.FoundFiles)
	v.SetDefault("messages.no_results", DefaultMessages.NoResults)
	v.SetDefault("messages.quota_exceeded", DefaultMessages.QuotaExceeded)
	v.SetDefault("messages.file_forwarded", DefaultMessages.FileForwarded)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.forward_not_channel", DefaultMessages.ForwardNotChannel)
	v.SetDefault("messages.not_channel_admin", DefaultMessages.NotChannelAdmin)
	v.SetDefault("messages.channel_added", DefaultMessages.ChannelAdded)
	v.SetDefault("messages.channel_exists", DefaultMessages.ChannelExists)
	v.SetDefault("messages.channel_removed", DefaultMessages.ChannelRemoved)
	v.SetDefault("messages.add_channel_prompt", DefaultMessages.AddChannelPrompt)
	v.SetDefault("messages.add_file_prompt", DefaultMessages.AddFilePrompt)
	v.SetDefault("messages.broadcast_prompt", DefaultMessages.BroadcastPrompt)
	v.SetDefault("messages.users_placeholder", DefaultMessages.UsersPlaceholder)
	v.SetDefault("messages.manage_channels", DefaultMessages.ManageChannels)
}
