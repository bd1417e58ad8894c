package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
)

// totalBalancePageSize bounds memory and fullnode load when scanning every
// user for the operator total.
const totalBalancePageSize = 30

// BalanceOf queries the ledger balance of one user's wallet. The result
// is built fresh on every call.
func (c *Client) BalanceOf(ctx context.Context, u *store.User) (token.UserBalance, error) {
	addr, err := c.AddressOf(u)
	if err != nil {
		return nil, err
	}
	return c.BalanceOfAddresses(ctx, []string{addr})
}

// BalanceOfAddresses sums ledger balances across a set of addresses, one
// entry per token. Tokens missing from the registry are dropped with a
// warning rather than failing the whole query.
func (c *Client) BalanceOfAddresses(ctx context.Context, addresses []string) (token.UserBalance, error) {
	native, err := c.tokens.Native()
	if err != nil {
		return nil, fmt.Errorf("native token descriptor: %w", err)
	}

	var balances []token.UserBalance
	for _, addr := range addresses {
		bal, err := c.ledger.AddressBalance(ctx, addr, false)
		if err != nil {
			return nil, classifyNodeError(err)
		}

		ub := token.UserBalance{}
		amount, err := token.AmountFromRaw(bal.Balance, native)
		if err != nil {
			return nil, fmt.Errorf("native balance of %s: %w", addr, err)
		}
		ub = append(ub, amount)

		for _, tb := range bal.TokenBalances {
			ta, err := c.tokens.AmountFromRaw(tb.ID, tb.Amount)
			if errors.Is(err, token.ErrNotFound) {
				c.logger.Warn().Str("token", tb.ID.String()).Str("address", addr).
					Msg("unknown token in balance, dropped")
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("token balance of %s: %w", addr, err)
			}
			ub = append(ub, ta)
		}
		balances = append(balances, ub)
	}

	return token.SumBalances(balances...)
}

// TotalBalance sums the balances of every registered user, paging through
// the user store in fixed-size batches.
func (c *Client) TotalBalance(ctx context.Context) (token.UserBalance, error) {
	total := token.UserBalance{}
	for offset := 0; ; offset += totalBalancePageSize {
		users, err := c.users.Page(offset, totalBalancePageSize)
		if err != nil {
			return nil, fmt.Errorf("page users: %w", err)
		}
		if len(users) == 0 {
			break
		}

		addrs := make([]string, 0, len(users))
		for _, u := range users {
			addr, err := c.AddressOf(u)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, addr)
		}
		page, err := c.BalanceOfAddresses(ctx, addrs)
		if err != nil {
			return nil, err
		}
		total, err = token.SumBalances(total, page)
		if err != nil {
			return nil, err
		}

		if len(users) < totalBalancePageSize {
			break
		}
	}
	return total, nil
}
