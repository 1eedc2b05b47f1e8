package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/bot/handlers"
	"github.com/filerelay/filerelay/internal/config"
	"github.com/filerelay/filerelay/internal/database"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Markup models.ReplyMarkup
}

type forwardCall struct {
	ToChatID   int64
	FromChatID int64
	MessageID  int
}

type answerCall struct {
	CallbackQueryID string
	Text            string
}

type searchCall struct {
	ChannelID int64
	Query     string
	Limit     int
}

// fakeMessenger records outgoing transport calls and serves canned
// search results keyed by channel ID.
type fakeMessenger struct {
	Sent     []sentMessage
	Edited   []sentMessage
	Forwards []forwardCall
	Answers  []answerCall
	Searches []searchCall

	ValidateErr   error
	ForwardErr    error
	SearchResults map[int64][]handlers.FileResult
	SearchErrs    map[int64]error
}

var _ handlers.Messenger = (*fakeMessenger)(nil)

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *fakeMessenger) EditMessageText(_ context.Context, chatID int64, _ int, text string, markup models.ReplyMarkup) error {
	m.Edited = append(m.Edited, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *fakeMessenger) ForwardMessage(_ context.Context, toChatID, fromChatID int64, messageID int) error {
	if m.ForwardErr != nil {
		return m.ForwardErr
	}
	m.Forwards = append(m.Forwards, forwardCall{ToChatID: toChatID, FromChatID: fromChatID, MessageID: messageID})
	return nil
}

func (m *fakeMessenger) AnswerCallbackQuery(_ context.Context, callbackQueryID, text string) error {
	m.Answers = append(m.Answers, answerCall{CallbackQueryID: callbackQueryID, Text: text})
	return nil
}

func (m *fakeMessenger) ValidateChannelMembership(_ context.Context, _ int64) error {
	return m.ValidateErr
}

func (m *fakeMessenger) SearchMessages(_ context.Context, channelID int64, query string, limit int) ([]handlers.FileResult, error) {
	m.Searches = append(m.Searches, searchCall{ChannelID: channelID, Query: query, Limit: limit})
	if err := m.SearchErrs[channelID]; err != nil {
		return nil, err
	}
	return m.SearchResults[channelID], nil
}

func (m *fakeMessenger) lastSent() sentMessage {
	if len(m.Sent) == 0 {
		return sentMessage{}
	}
	return m.Sent[len(m.Sent)-1]
}

type activityEntry struct {
	UserID  int64
	Action  string
	Details string
}

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	AdminID  int64
	Channels []database.StorageChannel

	QuotaAllowed bool
	QuotaErr     error
	QuotaCalls   int

	Requests []database.Request
	Activity []activityEntry
	Indexed  []database.ChannelMessage

	Stats database.Stats
}

var _ database.Store = (*fakeStore)(nil)

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) GetAdmin(context.Context) (int64, error) {
	if s.AdminID == 0 {
		return 0, database.ErrNoAdmin
	}
	return s.AdminID, nil
}

func (s *fakeStore) BootstrapAdmin(_ context.Context, userID int64) (bool, error) {
	if s.AdminID != 0 {
		return false, nil
	}
	s.AdminID = userID
	s.Activity = append(s.Activity, activityEntry{UserID: userID, Action: "admin_setup", Details: "User set as admin"})
	return true, nil
}

func (s *fakeStore) ListChannels(context.Context) ([]database.StorageChannel, error) {
	return s.Channels, nil
}

func (s *fakeStore) ChannelExists(_ context.Context, channelID int64) (bool, error) {
	for _, ch := range s.Channels {
		if ch.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) AddChannel(_ context.Context, channelID, adminID int64) error {
	for _, ch := range s.Channels {
		if ch.ChannelID == channelID {
			return database.ErrChannelExists
		}
	}
	s.Channels = append(s.Channels, database.StorageChannel{ChannelID: channelID, AddedBy: adminID, AddedAt: time.Now().UTC()})
	return nil
}

func (s *fakeStore) RemoveChannel(_ context.Context, channelID, _ int64) error {
	kept := s.Channels[:0]
	for _, ch := range s.Channels {
		if ch.ChannelID != channelID {
			kept = append(kept, ch)
		}
	}
	s.Channels = kept
	return nil
}

func (s *fakeStore) CheckAndConsumeQuota(_ context.Context, _ int64, _ time.Time, _ time.Duration, _ int) (bool, error) {
	s.QuotaCalls++
	if s.QuotaErr != nil {
		return false, s.QuotaErr
	}
	return s.QuotaAllowed, nil
}

func (s *fakeStore) SaveRequest(_ context.Context, req *database.Request) error {
	req.ID = int64(len(s.Requests) + 1)
	s.Requests = append(s.Requests, *req)
	return nil
}

func (s *fakeStore) LogActivity(_ context.Context, userID int64, action, details string) error {
	s.Activity = append(s.Activity, activityEntry{UserID: userID, Action: action, Details: details})
	return nil
}

func (s *fakeStore) CountStats(context.Context) (database.Stats, error) {
	return s.Stats, nil
}

func (s *fakeStore) RecentRequests(_ context.Context, _ int) ([]database.Request, error) {
	return s.Requests, nil
}

func (s *fakeStore) RecentActivity(_ context.Context, _ int) ([]database.ActivityLogEntry, error) {
	entries := make([]database.ActivityLogEntry, 0, len(s.Activity))
	for i, e := range s.Activity {
		entries = append(entries, database.ActivityLogEntry{
			ID: int64(i + 1), UserID: e.UserID, Action: e.Action, Details: e.Details,
		})
	}
	return entries, nil
}

func (s *fakeStore) IndexChannelMessage(_ context.Context, msg *database.ChannelMessage) error {
	s.Indexed = append(s.Indexed, *msg)
	return nil
}

func (s *fakeStore) SearchChannelMessages(_ context.Context, _ int64, _ string, _ int) ([]database.ChannelMessage, error) {
	return nil, nil
}

func (s *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

func (s *fakeStore) hasActivity(action string) bool {
	for _, e := range s.Activity {
		if e.Action == action {
			return true
		}
	}
	return false
}

func (s *fakeStore) activityDetails(action string) string {
	for _, e := range s.Activity {
		if e.Action == action {
			return e.Details
		}
	}
	return ""
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimit: config.RateLimitConfig{
			Window:      config.DefaultRateLimitWindow,
			MaxRequests: config.DefaultRateLimitMaxRequests,
		},
		Search: config.SearchConfig{
			MinQueryLength:  config.DefaultSearchMinQueryLength,
			PerChannelLimit: config.DefaultSearchPerChannelLimit,
			BannedWords:     config.DefaultBannedWords,
		},
		Messages: config.DefaultMessages,
	}
}

func newTestDeps(store *fakeStore, messenger *fakeMessenger) handlers.HandlerDeps {
	return handlers.HandlerDeps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:    testConfig(),
		Store:     store,
		Messenger: messenger,
	}
}

func textUpdate(userID, chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func callbackUpdate(userID, chatID int64, data, messageText string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   fmt.Sprintf("cb-%d", userID),
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{
					ID:   7,
					Chat: models.Chat{ID: chatID},
					Text: messageText,
				},
			},
		},
	}
}
