package database

import "time"

// Admin is the singleton privileged operator identity. At most one row
// ever exists; it is created by the first /start and never changes.
type Admin struct {
	UserID int64     `db:"user_id"`
	SetAt  time.Time `db:"set_at"`
}

// StorageChannel identifies a content-hosting channel the bot forwards
// files out of. The channel ID is unique across the registry.
type StorageChannel struct {
	ChannelID int64     `db:"channel_id"`
	AddedBy   int64     `db:"added_by"`
	AddedAt   time.Time `db:"added_at"`
}

// ChannelLogEntry is an immutable record of an add/remove action against
// the storage channel registry.
type ChannelLogEntry struct {
	ID        int64     `db:"id"`
	Action    string    `db:"action"`
	ChannelID int64     `db:"channel_id"`
	AdminID   int64     `db:"admin_id"`
	CreatedAt time.Time `db:"created_at"`
}

// UserQuota tracks a user's fixed-window delivery quota. It is created
// lazily on the first throttled action and never deleted.
type UserQuota struct {
	UserID        int64     `db:"user_id"`
	LastRequestAt time.Time `db:"last_request_at"`
	RequestCount  int       `db:"request_count"`
}

// Request records a fulfilled delivery: who asked for what, and which
// channel message was forwarded. Append-only.
type Request struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Query     string    `db:"query"`
	ChannelID int64     `db:"channel_id"`
	MessageID int       `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ActivityLogEntry captures every branch of every handler, successes and
// rejections alike, for operator visibility. Append-only.
type ActivityLogEntry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// ChannelMessage is one indexed post from a registered storage channel.
// The Bot API has no server-side search, so the bot indexes channel posts
// it receives as a channel administrator and searches this table instead.
type ChannelMessage struct {
	ChannelID int64     `db:"channel_id"`
	MessageID int       `db:"message_id"`
	FileName  string    `db:"file_name"`
	FileSize  int64     `db:"file_size"`
	Caption   string    `db:"caption"`
	PostedAt  time.Time `db:"posted_at"`
}
