package handlers_test

import (
	"context"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/filerelay/filerelay/internal/bot/handlers"
)

func TestAdminOnlyBlocksNonAdmin(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	called := false
	next := func(context.Context, *tgbot.Bot, *models.Update) { called = true }

	handlers.AdminOnly(deps)(next)(context.Background(), nil, textUpdate(999, 999, "/admin"))

	if called {
		t.Error("next handler ran for a non-admin caller")
	}
	if got := messenger.lastSent().Text; got != deps.Config.Messages.Unauthorized {
		t.Errorf("reply = %q, want %q", got, deps.Config.Messages.Unauthorized)
	}
	if !store.hasActivity("unauthorized_access") {
		t.Error("missing unauthorized_access activity entry")
	}
}

func TestAdminOnlyPassesAdminThrough(t *testing.T) {
	t.Parallel()

	store := &fakeStore{AdminID: 1}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	called := false
	next := func(context.Context, *tgbot.Bot, *models.Update) { called = true }

	handlers.AdminOnly(deps)(next)(context.Background(), nil, textUpdate(1, 1, "/admin"))

	if !called {
		t.Error("next handler did not run for the admin")
	}
	if len(messenger.Sent) != 0 {
		t.Errorf("middleware sent %d messages for the admin, want 0", len(messenger.Sent))
	}
}

func TestAdminOnlyBlocksEveryoneWhileUnconfigured(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	messenger := &fakeMessenger{}
	deps := newTestDeps(store, messenger)

	called := false
	next := func(context.Context, *tgbot.Bot, *models.Update) { called = true }

	handlers.AdminOnly(deps)(next)(context.Background(), nil, textUpdate(42, 42, "/admin"))

	if called {
		t.Error("next handler ran while no admin is configured")
	}
}
