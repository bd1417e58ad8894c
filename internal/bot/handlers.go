package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Klingon-tech/klingnet-tipbot/config"
	"github.com/Klingon-tech/klingnet-tipbot/internal/custody"
	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
)

const tryAgainLater = "Something went wrong on my side. Please try again later."

func (h *Handler) handleStart(msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}
	chatID := msg.Chat.ID

	u, err := h.custody.Register(msg.From.ID, msg.From.UserName)
	if errors.Is(err, custody.ErrAlreadyRegistered) {
		existing, err := h.custody.UserByChatID(msg.From.ID)
		if err != nil {
			h.logger.Error().Err(err).Int64("chat", chatID).Msg("fetch registered user")
			h.reply(chatID, tryAgainLater)
			return
		}
		h.reply(chatID, fmt.Sprintf("Welcome back, %s!\nYour deposit address is:\n<code>%s</code>",
			displayName(msg.From), existing.Address))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("chat", chatID).Msg("registration failed")
		h.reply(chatID, tryAgainLater)
		return
	}

	welcome := fmt.Sprintf("Hello %s! Your wallet is ready.\nDeposit address:\n<code>%s</code>",
		displayName(msg.From), u.Address)
	if h.cfg.Network == config.Devnet {
		welcome += "\n⚠️ This bot runs on devnet."
	}
	h.reply(chatID, welcome)
}

func (h *Handler) handleAddress(msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}
	u, ok := h.requireUser(msg)
	if !ok {
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Your deposit address:\n<code>%s</code>", u.Address))
}

func (h *Handler) handleBalance(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}
	u, ok := h.requireUser(msg)
	if !ok {
		return
	}

	bal, err := h.custody.BalanceOf(ctx, u)
	if err != nil {
		h.logger.Error().Err(err).Int64("user", u.ID).Msg("balance query failed")
		h.reply(msg.Chat.ID, tryAgainLater)
		return
	}
	h.reply(msg.Chat.ID, formatBalance(bal))
}

// handleTip transfers funds to the sender of the replied-to message:
// /tip <amount> [symbol], as a reply.
func (h *Handler) handleTip(ctx context.Context, msg *tgbotapi.Message) {
	sender, ok := h.requireUser(msg)
	if !ok {
		return
	}
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		h.reply(msg.Chat.ID, "Reply to a message with /tip &lt;amount&gt; [token] to tip its sender.")
		return
	}

	amount, err := h.parseAmount(msg.CommandArguments())
	if err != nil {
		h.reply(msg.Chat.ID, "I could not read that amount. Use /tip &lt;amount&gt; [token].")
		return
	}

	receiverFrom := msg.ReplyToMessage.From
	receiver, err := h.custody.UserByChatID(receiverFrom.ID)
	if errors.Is(err, store.ErrNotFound) {
		h.reply(msg.Chat.ID, fmt.Sprintf(
			"%s has no wallet yet. %s, start a private chat with me to claim tips!",
			displayName(receiverFrom), displayName(receiverFrom)))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("receiver lookup failed")
		h.reply(msg.Chat.ID, tryAgainLater)
		return
	}

	base := fmt.Sprintf("%s is tipping %s %s", displayName(msg.From), displayName(receiverFrom), amount)
	status := custody.NewStatus(base).SetAnnounce(h.replyTracked(msg.Chat.ID, base))

	txID, err := h.custody.Transfer(ctx, sender, receiver, amount, status)
	if err != nil {
		h.logger.Error().Err(err).Int64("sender", sender.ID).Int64("receiver", receiver.ID).Msg("tip failed")
		h.reply(msg.Chat.ID, transferErrorMessage(err))
		return
	}
	h.logger.Info().Int64("sender", sender.ID).Int64("receiver", receiver.ID).Str("tx", txID).Msg("tip sent")
}

// handleWithdraw sends funds to an external address:
// /withdraw <amount> [symbol] <address>, in private chat.
func (h *Handler) handleWithdraw(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		h.reply(msg.Chat.ID, "Withdrawals only work in our private chat.")
		return
	}
	u, ok := h.requireUser(msg)
	if !ok {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 || len(args) > 3 {
		h.reply(msg.Chat.ID, "Usage: /withdraw &lt;amount&gt; [token] &lt;address&gt;")
		return
	}
	destAddress := args[len(args)-1]
	amount, err := h.parseAmount(strings.Join(args[:len(args)-1], " "))
	if err != nil {
		h.reply(msg.Chat.ID, "I could not read that amount. Usage: /withdraw &lt;amount&gt; [token] &lt;address&gt;")
		return
	}

	if reject := h.belowMinWithdrawal(amount); reject != "" {
		h.reply(msg.Chat.ID, reject)
		return
	}

	base := fmt.Sprintf("Withdrawing %s to <code>%s</code>", amount, destAddress)
	status := custody.NewStatus(base).SetAnnounce(h.replyTracked(msg.Chat.ID, base))

	txID, err := h.custody.Withdraw(ctx, u, amount, destAddress, status)
	if err != nil {
		h.logger.Error().Err(err).Int64("user", u.ID).Msg("withdrawal failed")
		h.reply(msg.Chat.ID, transferErrorMessage(err))
		return
	}
	h.logger.Info().Int64("user", u.ID).Str("tx", txID).Msg("withdrawal sent")
}

// handleTotal reports the operator-wide balance. Admin only.
func (h *Handler) handleTotal(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() || !h.isAdmin(msg.From.ID) {
		return
	}

	total, err := h.custody.TotalBalance(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("total balance failed")
		h.reply(msg.Chat.ID, tryAgainLater)
		return
	}
	h.reply(msg.Chat.ID, "Custodied across all users:\n"+formatBalance(total))
}

func (h *Handler) handleHelp(msg *tgbotapi.Message) {
	help := "Here is what I can do:\n\n" +
		"/start — create your wallet (private chat)\n" +
		"/address — show your deposit address\n" +
		"/balance — show your balance\n" +
		"/tip &lt;amount&gt; [token] — as a reply, tip the message's sender\n" +
		"/withdraw &lt;amount&gt; [token] &lt;address&gt; — send funds out\n" +
		"/privacy — what I store about you"
	h.reply(msg.Chat.ID, help)
}

func (h *Handler) handlePrivacy(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID, "I only store your Telegram id and username, tied to a wallet "+
		"address I derive for you. I read messages in chats I am in but ignore "+
		"everything that is not a command for me.")
}

// requireUser resolves the sending user, prompting registration if absent.
func (h *Handler) requireUser(msg *tgbotapi.Message) (*store.User, bool) {
	u, err := h.custody.UserByChatID(msg.From.ID)
	if errors.Is(err, store.ErrNotFound) {
		h.reply(msg.Chat.ID, "You have no wallet yet. Start a private chat with me and run /start.")
		return nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("chat", msg.From.ID).Msg("user lookup failed")
		h.reply(msg.Chat.ID, tryAgainLater)
		return nil, false
	}
	return u, true
}

// parseAmount reads "<amount> [symbol]", defaulting to the native asset.
func (h *Handler) parseAmount(payload string) (*token.TokenAmount, error) {
	fields := strings.Fields(payload)
	switch len(fields) {
	case 1:
		return h.tokens.AmountFromDecimal(token.NativeSymbol, fields[0])
	case 2:
		return h.tokens.AmountFromDecimal(fields[1], fields[0])
	default:
		return nil, fmt.Errorf("expected <amount> [token], got %q", payload)
	}
}

// belowMinWithdrawal returns a rejection message when the configured
// native-asset floor applies, or "".
func (h *Handler) belowMinWithdrawal(amount *token.TokenAmount) string {
	min := h.cfg.Operator.MinWithdrawal
	if min == "" || !amount.Token.IsNative() {
		return ""
	}
	floor, err := h.tokens.AmountFromDecimal(token.NativeSymbol, min)
	if err != nil {
		h.logger.Error().Err(err).Str("min", min).Msg("bad min withdrawal config")
		return ""
	}
	if amount.Amount.Cmp(floor.Amount) < 0 {
		return fmt.Sprintf("Withdrawals below %s are not allowed.", floor)
	}
	return ""
}
