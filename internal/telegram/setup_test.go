package telegram

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestNewTelegramBotRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("NewTelegramBot(\"\") error = nil, want non-nil")
	}
}

func TestSetBotCommandsPublishesMenu(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	commands := []models.BotCommand{
		{Command: "help", Description: "List available commands"},
		{Command: "ping", Description: "Check whether the bot is alive"},
	}

	SetBotCommands(context.Background(), api, nil, commands)

	if api.setCommandsCalls != 1 {
		t.Errorf("SetMyCommands calls = %d, want 1", api.setCommandsCalls)
	}
	if len(api.setCommands) != len(commands) {
		t.Errorf("published %d commands, want %d", len(api.setCommands), len(commands))
	}
}

func TestSetBotCommandsSkipsEmptyMenu(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	SetBotCommands(context.Background(), api, nil, nil)

	if api.setCommandsCalls != 0 {
		t.Errorf("SetMyCommands calls = %d, want 0 for an empty menu", api.setCommandsCalls)
	}
}

func TestDeepLink(t *testing.T) {
	t.Parallel()

	got := DeepLink("wardenbot", "rules_-100123")
	want := "https://t.me/wardenbot?start=rules_-100123"
	if got != want {
		t.Errorf("DeepLink() = %q, want %q", got, want)
	}
}
