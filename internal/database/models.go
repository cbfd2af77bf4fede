package database

import (
	"math/rand/v2"
	"time"
)

// Roulette cylinder geometry. Chamber positions run 0 through 5; a group
// at rest sits on position 5 so the first pull lands on position 0.
const (
	cylinderSize = 6
	restChamber  = 5
)

// Group is the per-chat persistent state: welcome settings, moderation
// text, and the roulette cylinder.
type Group struct {
	GroupID   int64     `db:"group_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	WelcomeEnabled bool   `db:"welcome_enabled"`
	WelcomeMessage string `db:"welcome_message"`
	Description    string `db:"description"`
	Rules          string `db:"rules"`
	RelatedChats   string `db:"related_chats"`

	Bullet  int `db:"bullet"`
	Chamber int `db:"chamber"`
}

// NewGroup returns the default state for a chat with no stored row yet:
// welcome enabled, empty texts, and a freshly loaded cylinder. Nothing is
// persisted until the first save.
func NewGroup(groupID int64) *Group {
	group := &Group{
		GroupID:        groupID,
		WelcomeEnabled: true,
	}
	group.Reload()
	return group
}

// PullTrigger advances the cylinder one position and reports whether the
// bullet is now in the firing chamber.
func (g *Group) PullTrigger() bool {
	if g.Chamber == restChamber {
		g.Chamber = 0
	} else {
		g.Chamber++
	}
	return g.Bullet == g.Chamber
}

// Reload hides the bullet in a random position and returns the cylinder
// to rest.
func (g *Group) Reload() {
	g.Bullet = rand.IntN(cylinderSize)
	g.Chamber = restChamber
}

// ChambersRemaining reports how many pulls are left before the cylinder
// wraps back around.
func (g *Group) ChambersRemaining() int {
	return restChamber - g.Chamber
}

// Warning is one recorded moderation warning against a group member. The
// issuer's display name is captured at warn time so history renders
// without member lookups.
type Warning struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	GroupID      int64  `db:"group_id"`
	UserID       int64  `db:"user_id"`
	WarnedBy     int64  `db:"warned_by"`
	WarnedByName string `db:"warned_by_name"`
	Reason       string `db:"reason"`
}
