package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// maxDice caps both the number of dice and the sides per die.
const maxDice = 999

// eightBall holds the twenty classic answers.
var eightBall = [...]string{
	"It is certain.",
	"It is decidedly so.",
	"Without a doubt.",
	"Yes, definitely.",
	"You may rely on it.",
	"As I see it, yes.",
	"Most likely.",
	"Outlook good.",
	"Yes.",
	"Signs point to yes.",
	"Reply hazy, try again.",
	"Ask again later.",
	"Better not tell you now.",
	"Cannot predict now.",
	"Concentrate and ask again.",
	"Don't count on it.",
	"My reply is no.",
	"My sources say no.",
	"Outlook not so good.",
	"Very doubtful.",
}

// parseDice interprets roll arguments in NdM notation. A bare number means
// one die with that many sides; anything unparseable falls back to a single
// d20. Range checks are the caller's job so it can answer out-of-range
// requests differently from malformed ones.
func parseDice(args string) (count, sides int) {
	count, sides = 1, 20

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return count, sides
	}
	token := fields[0]

	before, after, found := strings.Cut(token, "d")
	if !found {
		n, err := strconv.Atoi(token)
		if err != nil {
			return count, sides
		}
		return 1, n
	}

	n, err := strconv.Atoi(before)
	if err != nil {
		return count, sides
	}
	m, err := strconv.Atoi(after)
	if err != nil {
		return count, sides
	}
	return n, m
}

// NewRollHandler returns a handler for the /roll command.
func NewRollHandler(deps HandlerDeps) bot.HandlerFunc {
	return rollHandler{deps}.Handle
}

type rollHandler struct {
	deps HandlerDeps
}

func (h rollHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "roll")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Roll handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	count, sides := parseDice(commandArgs(update.Message.Text))

	switch {
	case count < 1 || sides < 1:
		sendText(ctx, h.deps, log, chatID, "Very funny.")
		return
	case count > maxDice || sides > maxDice:
		sendText(ctx, h.deps, log, chatID, "Sorry, but I'm limited to 999d999.")
		return
	}

	if count == 1 {
		sendText(ctx, h.deps, log, chatID, strconv.Itoa(1+rand.IntN(sides)))
		return
	}

	results := make([]string, count)
	total := 0
	for i := range results {
		roll := 1 + rand.IntN(sides)
		results[i] = strconv.Itoa(roll)
		total += roll
	}

	sendText(ctx, h.deps, log, chatID, fmt.Sprintf("%s = %d", strings.Join(results, " + "), total))
}

// NewFlipHandler returns a handler for the /flip command.
func NewFlipHandler(deps HandlerDeps) bot.HandlerFunc {
	return flipHandler{deps}.Handle
}

type flipHandler struct {
	deps HandlerDeps
}

func (h flipHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "flip")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Flip handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	// A fair coin, except for the one time in ten it isn't.
	text := "The coin has landed sideways."
	switch roll := rand.IntN(100); {
	case roll < 45:
		text = "Heads."
	case roll < 90:
		text = "Tails."
	}

	sendText(ctx, h.deps, log, update.Message.Chat.ID, "• "+text)
}

// NewShakeHandler returns a handler for the /shake command.
func NewShakeHandler(deps HandlerDeps) bot.HandlerFunc {
	return shakeHandler{deps}.Handle
}

type shakeHandler struct {
	deps HandlerDeps
}

func (h shakeHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "shake")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Shake handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	sendText(ctx, h.deps, log, update.Message.Chat.ID, "• "+eightBall[rand.IntN(len(eightBall))])
}
