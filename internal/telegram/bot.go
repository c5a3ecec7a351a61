// Package telegram is the operator command front-end: it maps chat
// commands onto the orchestrator and formats the replies.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot runs the Telegram update loop. When adminChat is non-zero, commands
// from any other chat are ignored.
type Bot struct {
	api       *tgbotapi.BotAPI
	handler   *Handler
	adminChat int64
	log       zerolog.Logger
}

func NewBot(token string, adminChat int64, svc Commander, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log := logger.With().Str("component", "telegram").Logger()
	return &Bot{
		api:       api,
		handler:   NewHandler(api, svc, log),
		adminChat: adminChat,
		log:       log,
	}, nil
}

// Start consumes updates until Close. Blocking; run it in its own
// goroutine.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Str("account", b.api.Self.UserName).Msg("command front-end up")

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		msg := update.Message
		if b.adminChat != 0 && msg.Chat.ID != b.adminChat {
			b.log.Warn().Int64("chat", msg.Chat.ID).Msg("ignoring command from unknown chat")
			continue
		}
		b.dispatch(msg)
	}
}

func (b *Bot) dispatch(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()
	switch msg.Command() {
	case "status":
		b.handler.HandleStatus(chatID)
	case "rooms":
		b.handler.HandleRooms(chatID)
	case "join":
		b.handler.HandleJoin(chatID, args)
	case "kick":
		b.handler.HandleKick(chatID, args)
	case "delay":
		b.handler.HandleDelay(chatID, args)
	case "reset":
		b.handler.HandleReset(chatID, args)
	case "kill":
		b.handler.HandleKill(chatID, args)
	case "flush":
		b.handler.HandleFlush(chatID)
	case "start", "help":
		b.handler.HandleHelp(chatID)
	}
}

// Close stops the update loop.
func (b *Bot) Close() {
	b.api.StopReceivingUpdates()
}
