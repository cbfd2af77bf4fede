package telegram

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// API is the slice of the bot client the rest of the application calls.
// *bot.Bot satisfies it; tests substitute fakes.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	GetMe(ctx context.Context) (*models.User, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
	GetChatAdministrators(ctx context.Context, params *bot.GetChatAdministratorsParams) ([]models.ChatMember, error)
	ExportChatInviteLink(ctx context.Context, params *bot.ExportChatInviteLinkParams) (string, error)
	BanChatMember(ctx context.Context, params *bot.BanChatMemberParams) (bool, error)
	UnbanChatMember(ctx context.Context, params *bot.UnbanChatMemberParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

var _ API = (*bot.Bot)(nil)

// DisplayName renders a user the way chat members see them: @username when
// set, the full name otherwise.
func DisplayName(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return strings.TrimSpace(name)
}

// DeepLink builds a https://t.me/<bot>?start=<payload> link.
func DeepLink(botUsername, payload string) string {
	return "https://t.me/" + botUsername + "?start=" + payload
}
