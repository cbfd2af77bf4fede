package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/wardenbot/warden/internal/database"
)

func TestDescriptionPrefersStoredOverride(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.Description = "A place for gophers."
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	api := newFakeAPI()
	api.chat.Description = "Telegram's own blurb"

	NewDescriptionHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), "/description"))

	card := api.lastMessageTo(t, 42)
	if !strings.Contains(card, "A place for gophers.") {
		t.Errorf("card %q missing the stored description", card)
	}
	if strings.Contains(card, "Telegram's own blurb") {
		t.Errorf("card %q leaked the fallback description", card)
	}
}

func TestDescriptionFallsBackToChatDescription(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.chat.Description = "Telegram's own blurb"

	NewDescriptionHandler(newTestDeps(t, api, newFakeStore()))(context.Background(), nil, commandUpdate(testUser(), "/description"))

	if card := api.lastMessageTo(t, 42); !strings.Contains(card, "Telegram's own blurb") {
		t.Errorf("card %q missing the chat description", card)
	}
}

func TestDescriptionAnswersInGroupWhenUnset(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	deps := newTestDeps(t, api, newFakeStore())

	NewDescriptionHandler(deps)(context.Background(), nil, commandUpdate(testUser(), "/description"))

	if got, want := api.lastMessageTo(t, testChatID), deps.Config.Messages.NoDescription; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestSetDescriptionStoresAndConfirms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantDesc  string
		wantReply string
	}{
		{
			name:      "set",
			text:      "/setdescription A place for gophers.",
			wantDesc:  "A place for gophers.",
			wantReply: "Description set.",
		},
		{
			name:      "clear",
			text:      "/setdescription",
			wantDesc:  "",
			wantReply: "Description reset to default (fallback to Telegram description).",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			api := newFakeAPI()

			NewSetDescriptionHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), tc.text))

			if got := store.group(t, testChatID).Description; got != tc.wantDesc {
				t.Errorf("stored description = %q, want %q", got, tc.wantDesc)
			}
			if got := api.lastMessageTo(t, testChatID); got != tc.wantReply {
				t.Errorf("confirmation = %q, want %q", got, tc.wantReply)
			}
		})
	}
}
