package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNoAdmin is returned by GetAdmin while the bot is still unconfigured.
var ErrNoAdmin = errors.New("no admin configured")

// ErrChannelExists is returned when registering a channel that is already
// in the registry. It is a soft conflict, not a failure of the store.
var ErrChannelExists = errors.New("channel already registered")

// Stats aggregates usage counters for the admin stats view.
type Stats struct {
	TotalUsers    int64 `db:"total_users"`
	TotalRequests int64 `db:"total_requests"`
}

// Store defines the data access layer. All shared state between
// concurrently handled updates lives behind this interface, so its
// implementations must provide the atomicity the handlers rely on:
// insert-if-absent for admin bootstrap and channel registration, and
// read-increment-write for quota consumption.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetAdmin returns the configured admin's user ID, or ErrNoAdmin.
	GetAdmin(ctx context.Context) (int64, error)

	// BootstrapAdmin atomically installs userID as admin if none is set.
	// It reports whether the caller became the admin. The admin_setup
	// activity entry is written in the same transaction as the insert.
	BootstrapAdmin(ctx context.Context, userID int64) (bool, error)

	// ListChannels returns registered storage channels in insertion order.
	ListChannels(ctx context.Context) ([]StorageChannel, error)

	// ChannelExists reports whether channelID is registered.
	ChannelExists(ctx context.Context, channelID int64) (bool, error)

	// AddChannel registers a channel and appends the matching channel log
	// entry in one transaction. Duplicate IDs yield ErrChannelExists.
	AddChannel(ctx context.Context, channelID, adminID int64) error

	// RemoveChannel deletes a channel (no-op when missing) and appends a
	// remove entry to the channel log in one transaction.
	RemoveChannel(ctx context.Context, channelID, adminID int64) error

	// CheckAndConsumeQuota applies the fixed-window rate limit for userID
	// and reports whether the action is permitted. A permitted call
	// consumes one unit; a denied call performs no mutation.
	CheckAndConsumeQuota(ctx context.Context, userID int64, now time.Time, window time.Duration, maxRequests int) (bool, error)

	// SaveRequest appends one fulfilled delivery record.
	SaveRequest(ctx context.Context, req *Request) error

	// LogActivity appends one activity log entry.
	LogActivity(ctx context.Context, userID int64, action, details string) error

	// CountStats returns distinct-user and total-request counters.
	CountStats(ctx context.Context) (Stats, error)

	// RecentRequests returns the latest fulfilled requests, newest first.
	RecentRequests(ctx context.Context, limit int) ([]Request, error)

	// RecentActivity returns the latest activity entries, newest first.
	RecentActivity(ctx context.Context, limit int) ([]ActivityLogEntry, error)

	// IndexChannelMessage upserts one channel post into the search index.
	IndexChannelMessage(ctx context.Context, msg *ChannelMessage) error

	// SearchChannelMessages finds indexed posts in channelID whose file
	// name or caption contains query (case-insensitive), newest first.
	SearchChannelMessages(ctx context.Context, channelID int64, query string, limit int) ([]ChannelMessage, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetAdmin(ctx context.Context) (int64, error) {
	var userID int64
	err := s.db.GetContext(ctx, &userID, `SELECT user_id FROM admins LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrNoAdmin
	case err != nil:
		s.logger.ErrorContext(ctx, "Error reading admin", "error", err)
		return 0, fmt.Errorf("failed to read admin: %w", err)
	}
	return userID, nil
}

// BootstrapAdmin uses a single insert-if-absent statement so that two
// users racing to bootstrap cannot both win.
func (s *sqlxStore) BootstrapAdmin(ctx context.Context, userID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, &tx)

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO admins (user_id, set_at)
		 SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM admins)`,
		userID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error bootstrapping admin", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read bootstrap result: %w", err)
	}
	if affected == 0 {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, action, details, created_at) VALUES (?, ?, ?, ?)`,
		userID, "admin_setup", "User set as admin", now); err != nil {
		s.logger.ErrorContext(ctx, "Error writing admin_setup activity", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to log admin setup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Admin bootstrapped", "user_id", userID)
	return true, nil
}

func (s *sqlxStore) ListChannels(ctx context.Context) ([]StorageChannel, error) {
	var channels []StorageChannel
	query := `SELECT channel_id, added_by, added_at FROM storage_channels ORDER BY added_at, channel_id`
	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing storage channels", "error", err)
		return nil, fmt.Errorf("failed to list storage channels: %w", err)
	}
	return channels, nil
}

func (s *sqlxStore) ChannelExists(ctx context.Context, channelID int64) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		`SELECT 1 FROM storage_channels WHERE channel_id = ? LIMIT 1`, channelID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check channel %d: %w", channelID, err)
	}
	return true, nil
}

func (s *sqlxStore) AddChannel(ctx context.Context, channelID, adminID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, &tx)

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO storage_channels (channel_id, added_by, added_at) VALUES (?, ?, ?)`,
		channelID, adminID, now); err != nil {
		if isUniqueViolation(err) {
			return ErrChannelExists
		}
		s.logger.ErrorContext(ctx, "Error adding storage channel", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to add storage channel %d: %w", channelID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO channel_logs (action, channel_id, admin_id, created_at) VALUES (?, ?, ?, ?)`,
		"add", channelID, adminID, now); err != nil {
		s.logger.ErrorContext(ctx, "Error writing channel log", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to log channel add: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Storage channel added", "channel_id", channelID, "admin_id", adminID)
	return nil
}

// RemoveChannel is idempotent: deleting a missing channel still appends
// the remove entry and succeeds.
func (s *sqlxStore) RemoveChannel(ctx context.Context, channelID, adminID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, &tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM storage_channels WHERE channel_id = ?`, channelID); err != nil {
		s.logger.ErrorContext(ctx, "Error removing storage channel", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to remove storage channel %d: %w", channelID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO channel_logs (action, channel_id, admin_id, created_at) VALUES (?, ?, ?, ?)`,
		"remove", channelID, adminID, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error writing channel log", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to log channel removal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Storage channel removed", "channel_id", channelID, "admin_id", adminID)
	return nil
}

// CheckAndConsumeQuota runs the whole check inside one transaction so two
// concurrent deliveries for the same user cannot both observe room for
// one more when only one unit remains.
func (s *sqlxStore) CheckAndConsumeQuota(ctx context.Context, userID int64, now time.Time, window time.Duration, maxRequests int) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, &tx)

	var quota UserQuota
	err = tx.GetContext(ctx, &quota,
		`SELECT user_id, last_request_at, request_count FROM user_quotas WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_quotas (user_id, last_request_at, request_count) VALUES (?, ?, 1)`,
			userID, now); err != nil {
			return false, fmt.Errorf("failed to create quota state for user %d: %w", userID, err)
		}

	case err != nil:
		s.logger.ErrorContext(ctx, "Error reading quota state", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to read quota state for user %d: %w", userID, err)

	case now.Sub(quota.LastRequestAt) > window:
		// Window elapsed since the last accepted request: reset.
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_quotas SET request_count = 1, last_request_at = ? WHERE user_id = ?`,
			now, userID); err != nil {
			return false, fmt.Errorf("failed to reset quota for user %d: %w", userID, err)
		}

	case quota.RequestCount >= maxRequests:
		// Denied: no mutation, no consumption.
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		tx = nil
		s.logger.InfoContext(ctx, "Quota exceeded", "user_id", userID, "count", quota.RequestCount)
		return false, nil

	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_quotas SET request_count = request_count + 1, last_request_at = ? WHERE user_id = ?`,
			now, userID); err != nil {
			return false, fmt.Errorf("failed to increment quota for user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return true, nil
}

func (s *sqlxStore) SaveRequest(ctx context.Context, req *Request) error {
	if req == nil {
		return fmt.Errorf("cannot save nil request")
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.NamedExecContext(ctx,
		`INSERT INTO requests (user_id, query, channel_id, message_id, created_at)
		 VALUES (:user_id, :query, :channel_id, :message_id, :created_at)`, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving request", "user_id", req.UserID, "error", err)
		return fmt.Errorf("failed to save request for user %d: %w", req.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		req.ID = id
	}

	s.logger.DebugContext(ctx, "Request saved", "user_id", req.UserID, "channel_id", req.ChannelID, "message_id", req.MessageID)
	return nil
}

func (s *sqlxStore) LogActivity(ctx context.Context, userID int64, action, details string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, action, details, created_at) VALUES (?, ?, ?, ?)`,
		userID, action, details, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error writing activity log", "user_id", userID, "action", action, "error", err)
		return fmt.Errorf("failed to log activity %q: %w", action, err)
	}
	return nil
}

func (s *sqlxStore) CountStats(ctx context.Context) (Stats, error) {
	var stats Stats
	query := `SELECT
	            (SELECT COUNT(DISTINCT user_id) FROM user_quotas) AS total_users,
	            (SELECT COUNT(*) FROM requests) AS total_requests`
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error counting stats", "error", err)
		return Stats{}, fmt.Errorf("failed to count stats: %w", err)
	}
	return stats, nil
}

func (s *sqlxStore) RecentRequests(ctx context.Context, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 10
	}

	var requests []Request
	query := `SELECT id, user_id, query, channel_id, message_id, created_at
	          FROM requests ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &requests, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error reading recent requests", "error", err)
		return nil, fmt.Errorf("failed to read recent requests: %w", err)
	}
	return requests, nil
}

func (s *sqlxStore) RecentActivity(ctx context.Context, limit int) ([]ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var entries []ActivityLogEntry
	query := `SELECT id, user_id, action, details, created_at
	          FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error reading recent activity", "error", err)
		return nil, fmt.Errorf("failed to read recent activity: %w", err)
	}
	return entries, nil
}

func (s *sqlxStore) IndexChannelMessage(ctx context.Context, msg *ChannelMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot index nil channel message")
	}
	if msg.PostedAt.IsZero() {
		msg.PostedAt = time.Now().UTC()
	}

	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO channel_messages (channel_id, message_id, file_name, file_size, caption, posted_at)
		 VALUES (:channel_id, :message_id, :file_name, :file_size, :caption, :posted_at)
		 ON CONFLICT (channel_id, message_id) DO UPDATE SET
		   file_name = excluded.file_name,
		   file_size = excluded.file_size,
		   caption = excluded.caption,
		   posted_at = excluded.posted_at`, msg); err != nil {
		s.logger.ErrorContext(ctx, "Error indexing channel message",
			"channel_id", msg.ChannelID, "message_id", msg.MessageID, "error", err)
		return fmt.Errorf("failed to index message %d in channel %d: %w", msg.MessageID, msg.ChannelID, err)
	}
	return nil
}

func (s *sqlxStore) SearchChannelMessages(ctx context.Context, channelID int64, query string, limit int) ([]ChannelMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	pattern := "%" + escapeLike(query) + "%"
	var messages []ChannelMessage
	stmt := `SELECT channel_id, message_id, file_name, file_size, caption, posted_at
	         FROM channel_messages
	         WHERE channel_id = ?
	           AND (file_name LIKE ? ESCAPE '\' OR caption LIKE ? ESCAPE '\')
	         ORDER BY message_id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &messages, stmt, channelID, pattern, pattern, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error searching channel messages", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to search channel %d: %w", channelID, err)
	}
	return messages, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

// rollback rolls the transaction back unless it was committed (the caller
// sets *tx to nil after a successful commit).
func (s *sqlxStore) rollback(ctx context.Context, tx **sqlx.Tx) {
	if *tx == nil {
		return
	}
	if err := (*tx).Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.WarnContext(ctx, "Error rolling back transaction", "error", err)
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// escapeLike escapes LIKE metacharacters so user queries match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
