package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tcbot/internal/app"
	"tcbot/internal/lobby"
)

// MessageSender is the slice of the Telegram API the handlers use.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Commander is the orchestrator surface the handlers drive.
type Commander interface {
	Status() []app.BotStatus
	Rooms() []lobby.Room
	Join(pattern string, opts app.JoinOptions) ([]string, error)
	Kick(names []string, force bool) ([]string, error)
	SetDelay(names []string, d time.Duration) error
	Reset(names []string) error
	Kill(names []string) error
	Flush()
}

// Handler parses operator commands, calls the orchestrator and formats the
// replies. No business logic lives here.
type Handler struct {
	Bot MessageSender
	Svc Commander
	log zerolog.Logger
}

func NewHandler(bot MessageSender, svc Commander, logger zerolog.Logger) *Handler {
	return &Handler{Bot: bot, Svc: svc, log: logger}
}

// HandleStatus - /status
func (h *Handler) HandleStatus(chatID int64) {
	rows := h.Svc.Status()
	if len(rows) == 0 {
		h.reply(chatID, "no bots configured")
		return
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s: %s\n", r.Name, r.Status)
	}
	h.reply(chatID, b.String())
}

// HandleRooms - /rooms
func (h *Handler) HandleRooms(chatID int64) {
	rooms := h.Svc.Rooms()
	if len(rooms) == 0 {
		h.reply(chatID, "no rooms in the lobby")
		return
	}
	var b strings.Builder
	for _, r := range rooms {
		seated := 0
		for _, p := range r.Players {
			if p != nil {
				seated++
			}
		}
		state := "waiting"
		if r.Started() {
			state = fmt.Sprintf("round %d/%d", r.RoundIndex+1, r.RoundCount)
		}
		fmt.Fprintf(&b, "#%d %s (%d/%d, %s)\n", r.ID, r.Title, seated, lobby.SeatCount, state)
	}
	h.reply(chatID, b.String())
}

// HandleJoin - /join <pattern> [count]
func (h *Handler) HandleJoin(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.reply(chatID, "usage: /join <title pattern> [count]")
		return
	}
	opts := app.JoinOptions{Count: 1}
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			h.reply(chatID, "count must be a positive number")
			return
		}
		opts.Count = n
	}
	joined, err := h.Svc.Join(fields[0], opts)
	if err != nil {
		h.reply(chatID, err.Error())
		return
	}
	h.reply(chatID, "seated: "+strings.Join(joined, ", "))
}

// HandleKick - /kick [force] [names...]
func (h *Handler) HandleKick(chatID int64, args string) {
	fields := strings.Fields(args)
	force := false
	if len(fields) > 0 && fields[0] == "force" {
		force = true
		fields = fields[1:]
	}
	kicked, err := h.Svc.Kick(fields, force)
	if err != nil {
		h.reply(chatID, err.Error())
		return
	}
	if len(kicked) == 0 {
		h.reply(chatID, "nobody kicked (playing bots need force)")
		return
	}
	h.reply(chatID, "kicked: "+strings.Join(kicked, ", "))
}

// HandleDelay - /delay <ms> [names...]
func (h *Handler) HandleDelay(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.reply(chatID, "usage: /delay <milliseconds> [names...]")
		return
	}
	ms, err := strconv.Atoi(fields[0])
	if err != nil || ms < 0 {
		h.reply(chatID, "delay must be a non-negative number of milliseconds")
		return
	}
	if err := h.Svc.SetDelay(fields[1:], time.Duration(ms)*time.Millisecond); err != nil {
		h.reply(chatID, err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("delay set to %dms", ms))
}

// HandleReset - /reset [names...]
func (h *Handler) HandleReset(chatID int64, args string) {
	if err := h.Svc.Reset(strings.Fields(args)); err != nil {
		h.reply(chatID, err.Error())
		return
	}
	h.reply(chatID, "status reset")
}

// HandleKill - /kill [names...]
func (h *Handler) HandleKill(chatID int64, args string) {
	if err := h.Svc.Kill(strings.Fields(args)); err != nil {
		h.reply(chatID, err.Error())
		return
	}
	h.reply(chatID, "connections dropped, reconnecting")
}

// HandleFlush - /flush
func (h *Handler) HandleFlush(chatID int64) {
	h.Svc.Flush()
	h.reply(chatID, "traces written")
}

// HandleHelp - /help
func (h *Handler) HandleHelp(chatID int64) {
	h.reply(chatID, "/status - bot states\n"+
		"/rooms - lobby view\n"+
		"/join <pattern> [count] - seat bots in a waiting room\n"+
		"/kick [force] [names...] - leave rooms\n"+
		"/delay <ms> [names...] - response pacing\n"+
		"/reset [names...] - force status back to idle\n"+
		"/kill [names...] - drop and reconnect\n"+
		"/flush - write traces\n"+
		"/help - this message")
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn().Err(err).Msg("failed to send reply")
	}
}
