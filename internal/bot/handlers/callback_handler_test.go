package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/filerelay/filerelay/internal/bot/handlers"
	"github.com/filerelay/filerelay/internal/database"
)

func TestCallbackHandlerDeliversSelectedFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:      1,
		Channels:     []database.StorageChannel{{ChannelID: -100100}},
		QuotaAllowed: true,
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(200, 200, "request:-100100:42", `📄 Found files for "report":`)
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	if store.QuotaCalls != 1 {
		t.Errorf("quota calls = %d, want 1", store.QuotaCalls)
	}

	if len(messenger.Forwards) != 1 {
		t.Fatalf("forward calls = %d, want 1", len(messenger.Forwards))
	}
	fwd := messenger.Forwards[0]
	if fwd.ToChatID != 200 || fwd.FromChatID != -100100 || fwd.MessageID != 42 {
		t.Errorf("forward = %+v, want to=200 from=-100100 message=42", fwd)
	}

	if len(store.Requests) != 1 {
		t.Fatalf("saved requests = %d, want 1", len(store.Requests))
	}
	req := store.Requests[0]
	if req.UserID != 200 || req.ChannelID != -100100 || req.MessageID != 42 {
		t.Errorf("request = %+v, want user=200 channel=-100100 message=42", req)
	}
	if req.Query != "report" {
		t.Errorf("request query = %q, want %q", req.Query, "report")
	}

	if !store.hasActivity("file_request") {
		t.Error("missing file_request activity entry")
	}

	if len(messenger.Answers) != 1 || messenger.Answers[0].Text != deps.Config.Messages.FileForwarded {
		t.Errorf("callback answers = %+v, want one with %q", messenger.Answers, deps.Config.Messages.FileForwarded)
	}
}

func TestCallbackHandlerResolvesSingleChannelToken(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:      1,
		Channels:     []database.StorageChannel{{ChannelID: -100100}},
		QuotaAllowed: true,
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(200, 200, "request:42", `📄 Found files for "report":`)
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	if len(messenger.Forwards) != 1 {
		t.Fatalf("forward calls = %d, want 1", len(messenger.Forwards))
	}
	if got := messenger.Forwards[0].FromChatID; got != -100100 {
		t.Errorf("forward source channel = %d, want -100100", got)
	}
}

func TestCallbackHandlerForwardFailureSavesNothing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:      1,
		Channels:     []database.StorageChannel{{ChannelID: -100100}},
		QuotaAllowed: true,
	}
	messenger := &fakeMessenger{ForwardErr: errors.New("telegram: chat not found")}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(200, 200, "request:-100100:42", `📄 Found files for "report":`)
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	// The delivery record is written only after a successful forward.
	if len(store.Requests) != 0 {
		t.Errorf("saved requests = %d, want 0 when the forward fails", len(store.Requests))
	}
	if store.hasActivity("file_request") {
		t.Error("file_request activity written despite the failed forward")
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.GeneralError {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.GeneralError)
	}
	if len(messenger.Answers) != 1 || messenger.Answers[0].Text != "" {
		t.Errorf("callback answers = %+v, want one silent acknowledgement", messenger.Answers)
	}
}

func TestCallbackHandlerQuotaStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:  1,
		Channels: []database.StorageChannel{{ChannelID: -100100}},
		QuotaErr: errors.New("database is locked"),
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(200, 200, "request:-100100:42", `📄 Found files for "report":`)
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	if len(messenger.Forwards) != 0 {
		t.Errorf("forward calls = %d, want 0 when the quota check errors", len(messenger.Forwards))
	}
	if len(store.Requests) != 0 {
		t.Errorf("saved requests = %d, want 0 when the quota check errors", len(store.Requests))
	}
	if len(messenger.Answers) != 1 || messenger.Answers[0].Text != deps.Config.Messages.GeneralError {
		t.Errorf("callback answers = %+v, want one with %q", messenger.Answers, deps.Config.Messages.GeneralError)
	}
}

func TestCallbackHandlerEnforcesQuota(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:      1,
		Channels:     []database.StorageChannel{{ChannelID: -100100}},
		QuotaAllowed: false,
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(200, 200, "request:-100100:42", `📄 Found files for "report":`)
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	if len(messenger.Forwards) != 0 {
		t.Errorf("forward calls = %d, want 0 when quota exhausted", len(messenger.Forwards))
	}
	if len(store.Requests) != 0 {
		t.Errorf("saved requests = %d, want 0 when quota exhausted", len(store.Requests))
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.QuotaExceeded {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.QuotaExceeded)
	}
	if !store.hasActivity("rate_limit_exceeded") {
		t.Error("missing rate_limit_exceeded activity entry")
	}
}

func TestCallbackHandlerRejectsNonAdminActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       string
		wantAction string
	}{
		{name: "admin branch", data: "admin_stats", wantAction: "unauthorized_action"},
		{name: "channel branch", data: "remove_channel_-100100", wantAction: "unauthorized_channel_action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{AdminID: 1}
			messenger := &fakeMessenger{}
			deps := newTestDeps(store, messenger)

			update := callbackUpdate(999, 999, tt.data, "Admin Panel")
			handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

			if len(messenger.Answers) != 1 || messenger.Answers[0].Text != deps.Config.Messages.Unauthorized {
				t.Errorf("callback answers = %+v, want one with %q", messenger.Answers, deps.Config.Messages.Unauthorized)
			}
			if !store.hasActivity(tt.wantAction) {
				t.Errorf("missing %s activity entry", tt.wantAction)
			}
			if len(store.Channels) != 0 {
				t.Error("store mutated by unauthorized action")
			}
		})
	}
}

func TestCallbackHandlerAdminStats(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID: 1,
		Stats:   database.Stats{TotalUsers: 3, TotalRequests: 17},
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(1, 1, "admin_stats", "Admin Panel")
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	want := "📊 Stats:\nTotal Users: 3\nTotal Requests: 17"
	if got := messenger.lastSent().Text; got != want {
		t.Errorf("stats message = %q, want %q", got, want)
	}
	if !store.hasActivity("view_stats") {
		t.Error("missing view_stats activity entry")
	}
}

func TestCallbackHandlerRemoveChannel(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:  1,
		Channels: []database.StorageChannel{{ChannelID: -100100}, {ChannelID: -100200}},
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := callbackUpdate(1, 1, "remove_channel_-100100", "📚 Channel -100100")
	handlers.NewCallbackHandler(deps)(context.Background(), nil, update)

	if len(store.Channels) != 1 || store.Channels[0].ChannelID != -100200 {
		t.Errorf("channels after removal = %+v, want only -100200", store.Channels)
	}
	if len(messenger.Edited) == 0 {
		t.Fatal("expected the channel view to be edited after removal")
	}
	if !store.hasActivity("remove_channel") {
		t.Error("missing remove_channel activity entry")
	}
}
