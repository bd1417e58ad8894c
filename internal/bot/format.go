package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Klingon-tech/klingnet-tipbot/internal/custody"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
)

// displayName renders a user mention, preferring the @username.
func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	if u.FirstName != "" {
		return html.EscapeString(u.FirstName)
	}
	return "there"
}

// formatBalance renders a balance listing, one token per line.
func formatBalance(bal token.UserBalance) string {
	if len(bal) == 0 {
		return "Your wallet is empty."
	}
	lines := make([]string, 0, len(bal))
	for _, a := range bal {
		lines = append(lines, "• "+a.String())
	}
	return "Your wallet holds:\n" + strings.Join(lines, "\n")
}

// transferErrorMessage maps a typed custody error onto user wording. The
// custody engine makes the distinctions; we only phrase them.
func transferErrorMessage(err error) string {
	var invalid *custody.InvalidAddressError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("The address <code>%s</code> does not look valid, please check it.",
			html.EscapeString(invalid.Address))
	}

	var funds *custody.NotEnoughFundsError
	if errors.As(err, &funds) {
		return fmt.Sprintf("You do not have enough funds: the transfer needs %s base units but your wallet holds %s.",
			funds.Expected, funds.Got)
	}

	var fee *custody.NotEnoughBalanceForFeeError
	if errors.As(err, &fee) {
		return "Your balance cannot cover the transaction fee. Try a smaller amount."
	}

	var output *custody.NotEnoughNativeForOutputError
	if errors.As(err, &output) {
		return "Your wallet needs a bit more KGX to carry this transfer. Try a smaller amount or top up."
	}

	var netErr *custody.NetworkError
	if errors.As(err, &netErr) {
		return "I cannot reach the chain right now. Please try again in a moment."
	}

	return "The transfer failed. Please try again later."
}
