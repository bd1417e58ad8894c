// Package bot is the Telegram front-end. It parses commands, maps chat
// users onto custody operations, and renders results. All policy lives in
// the custody engine; this package only talks.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-tipbot/config"
	"github.com/Klingon-tech/klingnet-tipbot/internal/custody"
	"github.com/Klingon-tech/klingnet-tipbot/internal/log"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
)

// sender is the Telegram API surface the handler needs. *tgbotapi.BotAPI
// satisfies it; tests use a fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler routes Telegram updates to custody operations.
type Handler struct {
	api     sender
	custody *custody.Client
	tokens  *token.Registry
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewHandler creates the update handler.
func NewHandler(api sender, c *custody.Client, tokens *token.Registry, cfg *config.Config) *Handler {
	return &Handler{
		api:     api,
		custody: c,
		tokens:  tokens,
		cfg:     cfg,
		logger:  log.Bot,
	}
}

// Run consumes the update channel until the context is canceled. Each
// update is handled in its own goroutine; transfers block on chain
// confirmation and must not stall unrelated commands.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("bot stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			go h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate dispatches one update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Text == "" || msg.From == nil || msg.From.IsBot {
		return
	}

	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "address":
		h.handleAddress(msg)
	case "balance":
		h.handleBalance(ctx, msg)
	case "tip":
		h.handleTip(ctx, msg)
	case "withdraw":
		h.handleWithdraw(ctx, msg)
	case "total":
		h.handleTotal(ctx, msg)
	case "help":
		h.handleHelp(msg)
	case "privacy":
		h.handlePrivacy(msg)
	}
}

func (h *Handler) isAdmin(chatID int64) bool {
	for _, id := range h.cfg.Bot.Admins {
		if id == chatID {
			return true
		}
	}
	return false
}

// reply sends an HTML message to the chat. Send failures are logged, not
// propagated; there is nobody upstream to tell.
func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

// replyTracked sends a message and returns an announce function that
// edits it in place on every status change.
func (h *Handler) replyTracked(chatID int64, text string) custody.AnnounceFunc {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := h.api.Send(msg)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat", chatID).Msg("send failed")
		return func(string) {}
	}

	return func(update string) {
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, update)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		if _, err := h.api.Send(edit); err != nil {
			h.logger.Warn().Err(err).Int64("chat", chatID).Msg("status edit failed")
		}
	}
}
