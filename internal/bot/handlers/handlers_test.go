package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/saucenao"
	"github.com/wardenbot/warden/internal/telegram"
)

// sentMessage captures one outbound message for assertions.
type sentMessage struct {
	ChatID int64
	Text   string
	Markup models.ReplyMarkup
}

// fakeAPI implements telegram.API with canned responses and a send log.
type fakeAPI struct {
	mu sync.Mutex

	sent       []sentMessage
	sendErrFor map[int64]error

	members  map[int64]models.ChatMember
	admins   []models.ChatMember
	chat     models.ChatFullInfo
	exported string
	files    map[string]models.File

	banned   []int64
	unbanned []int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sendErrFor: make(map[int64]error),
		members:    make(map[int64]models.ChatMember),
		files:      make(map[string]models.File),
		chat:       models.ChatFullInfo{ID: 100, Title: "Gopher Hangout"},
	}
}

func (f *fakeAPI) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chatID, _ := params.ChatID.(int64)
	if err := f.sendErrFor[chatID]; err != nil {
		return nil, err
	}

	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: params.Text, Markup: params.ReplyMarkup})
	return &models.Message{ID: len(f.sent)}, nil
}

func (f *fakeAPI) GetMe(context.Context) (*models.User, error) {
	return &models.User{ID: 99, Username: "wardenbot", IsBot: true}, nil
}

func (f *fakeAPI) GetChat(context.Context, *bot.GetChatParams) (*models.ChatFullInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat := f.chat
	return &chat, nil
}

func (f *fakeAPI) GetChatMember(_ context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if member, ok := f.members[params.UserID]; ok {
		return &member, nil
	}

	member := models.ChatMember{
		Type:   models.ChatMemberTypeMember,
		Member: &models.ChatMemberMember{User: &models.User{ID: params.UserID}},
	}
	return &member, nil
}

func (f *fakeAPI) GetChatAdministrators(context.Context, *bot.GetChatAdministratorsParams) ([]models.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins, nil
}

func (f *fakeAPI) ExportChatInviteLink(context.Context, *bot.ExportChatInviteLinkParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exported, nil
}

func (f *fakeAPI) BanChatMember(_ context.Context, params *bot.BanChatMemberParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banned = append(f.banned, params.UserID)
	return true, nil
}

func (f *fakeAPI) UnbanChatMember(_ context.Context, params *bot.UnbanChatMemberParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbanned = append(f.unbanned, params.UserID)
	return true, nil
}

func (f *fakeAPI) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, ok := f.files[params.FileID]
	if !ok {
		file = models.File{FileID: params.FileID, FilePath: "photos/" + params.FileID + ".jpg"}
	}
	return &file, nil
}

func (f *fakeAPI) FileDownloadLink(file *models.File) string {
	return "https://files.test/" + file.FilePath
}

func (f *fakeAPI) SetMyCommands(context.Context, *bot.SetMyCommandsParams) (bool, error) {
	return true, nil
}

// messagesTo returns the texts sent to one chat, in order.
func (f *fakeAPI) messagesTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, msg := range f.sent {
		if msg.ChatID == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakeAPI) lastMessageTo(t *testing.T, chatID int64) string {
	t.Helper()

	texts := f.messagesTo(chatID)
	if len(texts) == 0 {
		t.Fatalf("no messages sent to chat %d", chatID)
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeAPI) lastSent(t *testing.T) sentMessage {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sent) == 0 {
		t.Fatal("no messages were sent")
	}
	return f.sent[len(f.sent)-1]
}

// fakeStore implements database.Store in memory.
type fakeStore struct {
	mu       sync.Mutex
	groups   map[int64]database.Group
	warnings []database.Warning
	failWith error
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{groups: make(map[int64]database.Group)}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) GetGroup(_ context.Context, groupID int64) (*database.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}
	if group, ok := s.groups[groupID]; ok {
		stored := group
		return &stored, nil
	}
	return database.NewGroup(groupID), nil
}

func (s *fakeStore) SaveGroup(_ context.Context, group *database.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	s.groups[group.GroupID] = *group
	return nil
}

func (s *fakeStore) UpdateGroup(ctx context.Context, groupID int64, mutate func(*database.Group) error) (*database.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := mutate(group); err != nil {
		return nil, err
	}
	if err := s.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *fakeStore) AddWarning(_ context.Context, warning *database.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}

	s.nextID++
	warning.ID = s.nextID
	if warning.CreatedAt.IsZero() {
		warning.CreatedAt = time.Now().UTC()
	}
	s.warnings = append(s.warnings, *warning)
	return nil
}

func (s *fakeStore) WarningsForUser(_ context.Context, groupID, userID int64) ([]database.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	var out []database.Warning
	for i := len(s.warnings) - 1; i >= 0; i-- {
		if s.warnings[i].GroupID == groupID && s.warnings[i].UserID == userID {
			out = append(out, s.warnings[i])
		}
	}
	return out, nil
}

func (s *fakeStore) PruneWarnings(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []database.Warning
	var pruned int64
	for _, warning := range s.warnings {
		if warning.CreatedAt.Before(olderThan) {
			pruned++
			continue
		}
		kept = append(kept, warning)
	}
	s.warnings = kept
	return pruned, nil
}

func (s *fakeStore) RunMaintenance(context.Context) error { return nil }

func (s *fakeStore) group(t *testing.T, groupID int64) database.Group {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		t.Fatalf("group %d was never saved", groupID)
	}
	return group
}

// newTestDeps wires handler dependencies around the given fakes.
func newTestDeps(t *testing.T, api *fakeAPI, store database.Store) HandlerDeps {
	t.Helper()

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			Token:   "test-token",
			BotInfo: config.BotInfo{ID: 99, Username: "wardenbot"},
		},
		Cache:    config.CacheConfig{MaxEntries: 64, TTL: time.Minute, MemberTTL: time.Minute, ChatTTL: time.Minute},
		Bot:      config.BotConfig{HandlerTimeout: 100 * time.Millisecond, WarnRetention: 30 * 24 * time.Hour},
		Messages: config.DefaultMessages,
	}

	return HandlerDeps{
		Logger:   logger,
		Config:   cfg,
		Store:    store,
		TG:       api,
		ChatInfo: telegram.NewChatInfo(api, logger, cfg.Cache),
		Renderer: renderer,
		Sauce:    saucenao.NewClient(config.SauceNAOConfig{URL: "http://127.0.0.1:1", Timeout: time.Second}, logger),
	}
}

const testChatID int64 = 100

// commandUpdate builds a group message update carrying a command.
func commandUpdate(user *models.User, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			From: user,
			Chat: models.Chat{ID: testChatID, Type: "supergroup", Title: "Gopher Hangout"},
			Text: text,
		},
	}
}

func testUser() *models.User {
	return &models.User{ID: 42, Username: "gopher", FirstName: "Gopher"}
}

func ownerMember(id int64, username string) models.ChatMember {
	return models.ChatMember{
		Type:  models.ChatMemberTypeOwner,
		Owner: &models.ChatMemberOwner{User: &models.User{ID: id, Username: username}},
	}
}

func adminMember(id int64, username string) models.ChatMember {
	return models.ChatMember{
		Type:          models.ChatMemberTypeAdministrator,
		Administrator: &models.ChatMemberAdministrator{User: models.User{ID: id, Username: username}},
	}
}
