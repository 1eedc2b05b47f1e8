package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/bot/handlers"
	"github.com/filerelay/filerelay/internal/database"
)

func channelForwardUpdate(userID int64, channelID int64) *models.Update {
	update := textUpdate(userID, userID, "")
	update.Message.ForwardOrigin = &models.MessageOrigin{
		Type: models.MessageOriginTypeChannel,
		MessageOriginChannel: &models.MessageOriginChannel{
			Chat: models.Chat{ID: channelID, Type: models.ChatTypeChannel},
		},
	}
	return update
}

func TestForwardHandlerRegistersChannel(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	handlers.NewForwardHandler(deps)(context.Background(), nil, channelForwardUpdate(1, -100100))

	if len(store.Channels) != 1 || store.Channels[0].ChannelID != -100100 {
		t.Fatalf("channels = %+v, want exactly -100100", store.Channels)
	}
	want := fmt.Sprintf(deps.Config.Messages.ChannelAdded, int64(-100100))
	if got := messenger.lastSent().Text; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if !store.hasActivity("add_channel") {
		t.Error("missing add_channel activity entry")
	}
}

func TestForwardHandlerRejectsNonAdmin(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	handlers.NewForwardHandler(deps)(context.Background(), nil, channelForwardUpdate(999, -100100))

	if len(store.Channels) != 0 {
		t.Errorf("channels = %+v, want none registered by a non-admin", store.Channels)
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.Unauthorized {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.Unauthorized)
	}
	if !store.hasActivity("unauthorized_forward") {
		t.Error("missing unauthorized_forward activity entry")
	}
}

func TestForwardHandlerRejectsNonChannelOrigin(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	update := textUpdate(1, 1, "")
	update.Message.ForwardOrigin = &models.MessageOrigin{
		Type: models.MessageOriginTypeUser,
		MessageOriginUser: &models.MessageOriginUser{
			SenderUser: models.User{ID: 555},
		},
	}
	handlers.NewForwardHandler(deps)(context.Background(), nil, update)

	if len(store.Channels) != 0 {
		t.Errorf("channels = %+v, want none for a user-origin forward", store.Channels)
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.ForwardNotChannel {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.ForwardNotChannel)
	}
	if !store.hasActivity("invalid_forward") {
		t.Error("missing invalid_forward activity entry")
	}
}

func TestForwardHandlerRequiresBotMembership(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{ValidateErr: errors.New("telegram: flood wait 42s")}
	deps := newTestDeps(store, messenger)

	handlers.NewForwardHandler(deps)(context.Background(), nil, channelForwardUpdate(1, -100100))

	if len(store.Channels) != 0 {
		t.Errorf("channels = %+v, want none when membership validation fails", store.Channels)
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.NotChannelAdmin {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.NotChannelAdmin)
	}
	if !store.hasActivity("channel_validation_failed") {
		t.Error("missing channel_validation_failed activity entry")
	}

	// The transport cause must survive in the audit trail.
	details := store.activityDetails("error")
	if details == "" {
		t.Fatal("missing error activity entry for the failed validation")
	}
	if !strings.Contains(details, "telegram: flood wait 42s") {
		t.Errorf("error entry details = %q, want the raw transport cause included", details)
	}
	if !strings.Contains(details, "-100100") {
		t.Errorf("error entry details = %q, want the channel ID included", details)
	}
}

func TestForwardHandlerDuplicateChannel(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		AdminID:  1,
		Channels: []database.StorageChannel{{ChannelID: -100100}},
	}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	handlers.NewForwardHandler(deps)(context.Background(), nil, channelForwardUpdate(1, -100100))

	if len(store.Channels) != 1 {
		t.Errorf("channels = %+v, want the single original registration", store.Channels)
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.ChannelExists {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.ChannelExists)
	}
	if !store.hasActivity("channel_already_added") {
		t.Error("missing channel_already_added activity entry")
	}
}
