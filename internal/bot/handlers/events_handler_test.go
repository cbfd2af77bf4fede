package handlers

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
)

func TestDefaultHandlerAnswersUnknownCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "bare command", text: "/frobnicate"},
		{name: "command with arguments", text: "/frobnicate the widget"},
		{name: "command addressed to this bot", text: "/frobnicate@wardenbot"},
		{name: "addressing is case insensitive", text: "/frobnicate@WardenBot now"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := newFakeAPI()
			deps := newTestDeps(t, api, newFakeStore())
			handle := NewDefaultHandler(deps)

			handle(context.Background(), nil, commandUpdate(testUser(), tc.text))

			if got, want := api.lastMessageTo(t, testChatID), deps.Config.Messages.NotUnderstood; got != want {
				t.Errorf("reply = %q, want %q", got, want)
			}
		})
	}
}

func TestDefaultHandlerStaysQuiet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "plain chatter", text: "good morning everyone"},
		{name: "command for another bot", text: "/frobnicate@otherbot"},
		{name: "empty message", text: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := newFakeAPI()
			handle := NewDefaultHandler(newTestDeps(t, api, newFakeStore()))

			handle(context.Background(), nil, commandUpdate(testUser(), tc.text))

			if api.sentCount() != 0 {
				t.Errorf("sent %d messages, want 0", api.sentCount())
			}
		})
	}
}

// joinUpdate builds the update Telegram delivers when users enter a group.
func joinUpdate(members ...models.User) *models.Update {
	return &models.Update{
		ID: 2,
		Message: &models.Message{
			ID:             11,
			Chat:           models.Chat{ID: testChatID, Type: "supergroup", Title: "Gopher Hangout"},
			NewChatMembers: members,
		},
	}
}

func TestWelcomeExpandsPlaceholders(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.admins = []models.ChatMember{ownerMember(1, "alice")}

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.WelcomeMessage = "Welcome {usernames} to {title}! Mods: {mods}. Rules: {rules_with_start}"
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	handle := NewDefaultHandler(newTestDeps(t, api, store))

	handle(context.Background(), nil, joinUpdate(
		models.User{ID: 7, Username: "newbie"},
		models.User{ID: 8, FirstName: "Robo", IsBot: true},
	))

	sent := api.lastSent(t)
	want := "Welcome @newbie to Gopher Hangout! Mods: @alice (owner). Rules: https://t.me/wardenbot?start=rules_100"
	if sent.Text != want {
		t.Errorf("welcome text = %q, want %q", sent.Text, want)
	}

	markup, ok := sent.Markup.(*models.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("welcome markup is %T, want inline keyboard", sent.Markup)
	}
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("welcome keyboard shape = %v, want a single button", markup.InlineKeyboard)
	}

	button := markup.InlineKeyboard[0][0]
	if button.Text != "Click and press START to read the rules" {
		t.Errorf("button text = %q", button.Text)
	}
	if button.URL != "https://t.me/wardenbot?start=rules_100" {
		t.Errorf("button URL = %q", button.URL)
	}
}

func TestWelcomeUsesDefaultTextWhenUnset(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	deps := newTestDeps(t, api, newFakeStore())
	handle := NewDefaultHandler(deps)

	handle(context.Background(), nil, joinUpdate(models.User{ID: 7, Username: "newbie"}))

	if api.sentCount() != 1 {
		t.Fatalf("sent %d messages, want 1", api.sentCount())
	}
	if api.lastSent(t).Text == "" {
		t.Error("default welcome rendered empty")
	}
}

func TestWelcomeRespectsDisabledFlag(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.WelcomeEnabled = false
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	api := newFakeAPI()
	handle := NewDefaultHandler(newTestDeps(t, api, store))

	handle(context.Background(), nil, joinUpdate(models.User{ID: 7, Username: "newbie"}))

	if api.sentCount() != 0 {
		t.Errorf("sent %d messages with welcomes disabled, want 0", api.sentCount())
	}
}

func TestWelcomeIgnoresBotOnlyJoins(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	handle := NewDefaultHandler(newTestDeps(t, api, newFakeStore()))

	handle(context.Background(), nil, joinUpdate(models.User{ID: 8, FirstName: "Robo", IsBot: true}))

	if api.sentCount() != 0 {
		t.Errorf("sent %d messages for a bot-only join, want 0", api.sentCount())
	}
}
