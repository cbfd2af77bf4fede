package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	// Database defaults
	DefaultDBHost            = "localhost"
	DefaultDBPort            = 3306
	DefaultDBName            = "warden"
	DefaultDBMaxOpenConns    = 25
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = time.Hour

	// Cache defaults
	DefaultCacheMaxEntries = 10000
	DefaultCacheTTL        = 15 * time.Minute
	DefaultCacheMemberTTL  = time.Minute
	DefaultCacheChatTTL    = 5 * time.Minute

	// Bot defaults
	DefaultBotHandlerTimeout = 30 * time.Second
	DefaultBotWarnRetention  = 180 * 24 * time.Hour

	// SauceNAO defaults
	DefaultSauceNAOURL           = "https://saucenao.com/search.php"
	DefaultSauceNAOMinSimilarity = 80.0
	DefaultSauceNAOTimeout       = 30 * time.Second
)

// Default user-visible messages
var DefaultMessages = MessagesConfig{
	NotAuthorized:   "You do not have the required permission to do this.",
	CreatorOnly:     "Only the group creator can do this.",
	NotUnderstood:   "I don't know that command. Try /help.",
	GeneralError:    "Something went wrong. Please try again later.",
	StoreDegraded:   "I can't reach my database right now. Please try again in a bit.",
	HandlerTimeout:  "That took too long and was cancelled. Please try again.",
	GroupOnly:       "This command only works in a group.",
	ReplyRequired:   "Reply to a message to use this command.",
	PressStart:      "{user}, I don't have permission to PM you. Please click the following link and then press START: {link}",
	DefaultWelcome:  "Hello {usernames}, welcome to {title}! Please make sure to read the /rules by pressing the button below.",
	NoRules:         "No rules set for this group yet. Just don't be a meanie, okay?",
	NoDescription:   "No description set for this group yet.",
	NoRelatedChats:  "There are no known related chats for this group.",
	SourceDisabled:  "Reverse image search is not configured on this bot.",
	SourceNoResult:  "Couldn't find a source :(",
	SourcePhotoOnly: "I see no picture here.",
}

// Default task schedules. Cron expressions use the optional seconds field.
var DefaultTasks = map[string]TaskConfig{
	"warn_retention":    {Enabled: true, Schedule: "0 0 4 * * *"},
	"store_maintenance": {Enabled: true, Schedule: "0 30 4 * * 0"},
	"cache_sweep":       {Enabled: true, Schedule: "0 */10 * * * *"},
}
