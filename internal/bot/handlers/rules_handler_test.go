package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
)

func TestRulesDeliveredInPrivate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.Rules = "1. Be nice.\n2. No spam."
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	api := newFakeAPI()
	api.admins = []models.ChatMember{ownerMember(1, "alice")}

	NewRulesHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), "/rules"))

	card := api.lastMessageTo(t, 42)
	for _, want := range []string{"Gopher Hangout", "The group rules are:", "1. Be nice.", "@alice (owner)"} {
		if !strings.Contains(card, want) {
			t.Errorf("rules card %q missing %q", card, want)
		}
	}

	if got := api.messagesTo(testChatID); len(got) != 0 {
		t.Errorf("group chat received %q, want the card in private only", got)
	}

	// The owner hears about the request.
	if got, want := api.lastMessageTo(t, 1), "@gopher just requested the rules for Gopher Hangout."; got != want {
		t.Errorf("creator notice = %q, want %q", got, want)
	}
}

func TestRulesSkipsCreatorNoticeForOwnRequest(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.Rules = "Be nice."
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	api := newFakeAPI()
	api.admins = []models.ChatMember{ownerMember(42, "gopher")}

	NewRulesHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), "/rules"))

	// Only the card lands in the owner's private chat, no self-notice.
	if got := api.messagesTo(42); len(got) != 1 || !strings.Contains(got[0], "The group rules are:") {
		t.Errorf("messages to requesting owner = %q, want just the rules card", got)
	}
}

func TestRulesAnswersInGroupWhenUnset(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	deps := newTestDeps(t, api, newFakeStore())

	NewRulesHandler(deps)(context.Background(), nil, commandUpdate(testUser(), "/rules"))

	if got, want := api.lastMessageTo(t, testChatID), deps.Config.Messages.NoRules; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestRulesRefusedInPrivateChat(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	deps := newTestDeps(t, api, newFakeStore())

	update := commandUpdate(testUser(), "/rules")
	update.Message.Chat.Type = "private"

	NewRulesHandler(deps)(context.Background(), nil, update)

	if got, want := api.lastMessageTo(t, testChatID), deps.Config.Messages.GroupOnly; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestRulesPostsDeepLinkWhenPMBlocked(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	group := database.NewGroup(testChatID)
	group.Rules = "Be nice."
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	api := newFakeAPI()
	api.sendErrFor[42] = bot.ErrorForbidden

	NewRulesHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), "/rules"))

	want := "@gopher, I don't have permission to PM you. Please click the following link and then press START: https://t.me/wardenbot?start=rules_100"
	if got := api.lastMessageTo(t, testChatID); got != want {
		t.Errorf("fallback prompt = %q, want %q", got, want)
	}
}

func TestSetRulesStoresAndConfirms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantRules string
		wantReply string
	}{
		{name: "set", text: "/setrules Be nice.", wantRules: "Be nice.", wantReply: "Rules set."},
		{name: "clear", text: "/setrules", wantRules: "", wantReply: "Rules removed."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			api := newFakeAPI()

			NewSetRulesHandler(newTestDeps(t, api, store))(context.Background(), nil, commandUpdate(testUser(), tc.text))

			if got := store.group(t, testChatID).Rules; got != tc.wantRules {
				t.Errorf("stored rules = %q, want %q", got, tc.wantRules)
			}
			if got := api.lastMessageTo(t, testChatID); got != tc.wantReply {
				t.Errorf("confirmation = %q, want %q", got, tc.wantReply)
			}
		})
	}
}
