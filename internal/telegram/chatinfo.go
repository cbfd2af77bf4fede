package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/cache"
	"github.com/wardenbot/warden/internal/config"
)

// ChatInfo provides cached access to chat metadata, membership, and invite
// links so permission gates and welcome flows do not hit the API on every
// message. Membership answers may be up to MemberTTL stale; a demoted admin
// keeps their powers for at most that long.
type ChatInfo struct {
	api    API
	logger *slog.Logger

	members *cache.Cache[models.ChatMember]
	admins  *cache.Cache[[]models.ChatMember]
	chats   *cache.Cache[models.ChatFullInfo]
	invites *cache.Cache[string]

	memberTTL time.Duration
	chatTTL   time.Duration
}

// NewChatInfo builds the cached facade over the API client.
func NewChatInfo(api API, logger *slog.Logger, cfg config.CacheConfig) *ChatInfo {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "chat_info")

	return &ChatInfo{
		api:       api,
		logger:    log,
		members:   cache.New[models.ChatMember](cache.WithMaxEntries(cfg.MaxEntries), cache.WithLogger(log)),
		admins:    cache.New[[]models.ChatMember](cache.WithMaxEntries(cfg.MaxEntries), cache.WithLogger(log)),
		chats:     cache.New[models.ChatFullInfo](cache.WithMaxEntries(cfg.MaxEntries), cache.WithLogger(log)),
		invites:   cache.New[string](cache.WithMaxEntries(cfg.MaxEntries), cache.WithLogger(log)),
		memberTTL: cfg.MemberTTL,
		chatTTL:   cfg.ChatTTL,
	}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func memberKey(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// Chat returns chat metadata, served from cache when fresh.
func (c *ChatInfo) Chat(ctx context.Context, chatID int64) (*models.ChatFullInfo, error) {
	if chat, ok := c.chats.Get(chatKey(chatID)); ok {
		return &chat, nil
	}

	chat, err := c.api.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}

	c.chats.PutTTL(chatKey(chatID), *chat, c.chatTTL)
	return chat, nil
}

// Member returns a user's membership record in a chat.
func (c *ChatInfo) Member(ctx context.Context, chatID, userID int64) (*models.ChatMember, error) {
	if member, ok := c.members.Get(memberKey(chatID, userID)); ok {
		return &member, nil
	}

	member, err := c.api.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d of chat %d: %w", userID, chatID, err)
	}

	c.members.PutTTL(memberKey(chatID, userID), *member, c.memberTTL)
	return member, nil
}

// Administrators returns the chat's admin list.
func (c *ChatInfo) Administrators(ctx context.Context, chatID int64) ([]models.ChatMember, error) {
	if admins, ok := c.admins.Get(chatKey(chatID)); ok {
		return admins, nil
	}

	admins, err := c.api.GetChatAdministrators(ctx, &bot.GetChatAdministratorsParams{ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to get administrators of chat %d: %w", chatID, err)
	}

	c.admins.PutTTL(chatKey(chatID), admins, c.memberTTL)
	return admins, nil
}

// IsAdmin reports whether the user is the chat's owner or an administrator.
func (c *ChatInfo) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := c.Member(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	return member.Type == models.ChatMemberTypeOwner ||
		member.Type == models.ChatMemberTypeAdministrator, nil
}

// IsCreator reports whether the user owns the chat.
func (c *ChatInfo) IsCreator(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := c.Member(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	return member.Type == models.ChatMemberTypeOwner, nil
}

// Creator returns the chat's owner, or nil when the admin list has none
// (anonymous owners are not listed).
func (c *ChatInfo) Creator(ctx context.Context, chatID int64) (*models.User, error) {
	admins, err := c.Administrators(ctx, chatID)
	if err != nil {
		return nil, err
	}

	for i := range admins {
		if admins[i].Type == models.ChatMemberTypeOwner {
			return memberUser(&admins[i]), nil
		}
	}
	return nil, nil
}

// ModList renders the human mod roster: the owner first, the remaining
// administrators sorted by name, bots skipped.
func (c *ChatInfo) ModList(ctx context.Context, chatID int64) ([]string, error) {
	admins, err := c.Administrators(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var owner string
	var mods []string
	for i := range admins {
		user := memberUser(&admins[i])
		if user == nil || user.IsBot {
			continue
		}

		if admins[i].Type == models.ChatMemberTypeOwner {
			owner = DisplayName(user) + " (owner)"
		} else {
			mods = append(mods, DisplayName(user))
		}
	}

	sort.Strings(mods)
	if owner != "" {
		mods = append([]string{owner}, mods...)
	}
	return mods, nil
}

// InviteLink returns the chat's invite link, exporting a fresh one when
// the chat has none yet.
func (c *ChatInfo) InviteLink(ctx context.Context, chatID int64) (string, error) {
	if link, ok := c.invites.Get(chatKey(chatID)); ok {
		return link, nil
	}

	chat, err := c.Chat(ctx, chatID)
	if err != nil {
		return "", err
	}

	link := chat.InviteLink
	if link == "" {
		link, err = c.api.ExportChatInviteLink(ctx, &bot.ExportChatInviteLinkParams{ChatID: chatID})
		if err != nil {
			return "", fmt.Errorf("failed to export invite link for chat %d: %w", chatID, err)
		}
	}

	c.invites.PutTTL(chatKey(chatID), link, c.chatTTL)
	return link, nil
}

// RevokeInviteLink replaces the chat's primary invite link and returns the
// new one. The cached chat entry is dropped because it embeds the old link.
func (c *ChatInfo) RevokeInviteLink(ctx context.Context, chatID int64) (string, error) {
	link, err := c.api.ExportChatInviteLink(ctx, &bot.ExportChatInviteLinkParams{ChatID: chatID})
	if err != nil {
		return "", fmt.Errorf("failed to revoke invite link for chat %d: %w", chatID, err)
	}

	c.invites.PutTTL(chatKey(chatID), link, c.chatTTL)
	c.chats.Delete(chatKey(chatID))

	c.logger.InfoContext(ctx, "Invite link revoked", "chat_id", chatID)
	return link, nil
}

// memberUser extracts the user a membership record refers to.
func memberUser(member *models.ChatMember) *models.User {
	switch member.Type {
	case models.ChatMemberTypeOwner:
		if member.Owner != nil {
			return member.Owner.User
		}
	case models.ChatMemberTypeAdministrator:
		if member.Administrator != nil {
			return &member.Administrator.User
		}
	case models.ChatMemberTypeMember:
		if member.Member != nil {
			return member.Member.User
		}
	case models.ChatMemberTypeRestricted:
		if member.Restricted != nil {
			return member.Restricted.User
		}
	case models.ChatMemberTypeLeft:
		if member.Left != nil {
			return member.Left.User
		}
	case models.ChatMemberTypeBanned:
		if member.Banned != nil {
			return member.Banned.User
		}
	}
	return nil
}
