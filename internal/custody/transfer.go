package custody

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
	"github.com/Klingon-tech/klingnet-tipbot/internal/wallet"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// dustAmount is the minimal native output attached to token destinations.
// The ledger's output model requires every output to carry some native
// asset. 0.001 KGX.
var dustAmount = big.NewInt(1_000_000_000_000_000)

// Transfer moves an amount between two registered users. Exactly one
// destination, never a fee. Blocks until the internal confirmation depth
// is reached, then triggers detached consolidation for both wallets.
func (c *Client) Transfer(ctx context.Context, sender, receiver *store.User, amount *token.TokenAmount, status *Status) (string, error) {
	if err := checkAmount(amount); err != nil {
		return "", err
	}
	receiverAddr, err := c.AddressOf(receiver)
	if err != nil {
		return "", fmt.Errorf("receiver address: %w", err)
	}

	key, err := c.dir.KeyFor(sender.ID)
	if err != nil {
		return "", fmt.Errorf("sender wallet: %w", err)
	}

	dests := []node.Destination{destination(receiverAddr, amount)}
	txID, err := c.submitAndConfirm(ctx, key, dests, c.cfg.ConfirmationsInternal, status)
	if err != nil {
		return "", err
	}

	c.logger.Info().Int64("sender", sender.ID).Int64("receiver", receiver.ID).
		Str("amount", amount.String()).Str("tx", txID).Msg("transfer confirmed")
	c.consolidateDetached(sender, receiver)
	return txID, nil
}

// Withdraw sends an amount to an external address, skimming the operator
// fee when one is configured. The destination is validated before any
// ledger call; the fee destination precedes the primary destination in
// the submitted output list. Blocks until the external confirmation depth
// is reached, then triggers detached consolidation for the sender.
func (c *Client) Withdraw(ctx context.Context, sender *store.User, amount *token.TokenAmount, destAddress string, status *Status) (string, error) {
	if !types.IsValidAddress(destAddress) {
		return "", &InvalidAddressError{Address: destAddress}
	}
	if err := checkAmount(amount); err != nil {
		return "", err
	}

	key, err := c.dir.KeyFor(sender.ID)
	if err != nil {
		return "", fmt.Errorf("sender wallet: %w", err)
	}

	var dests []node.Destination
	if c.cfg.FeePercent > 0 {
		fee, err := amount.SplitPercentage(c.cfg.FeePercent)
		if err != nil {
			return "", fmt.Errorf("split operator fee: %w", err)
		}
		feeAddr := c.cfg.FeeAddresses[key.Group()]
		dests = append(dests, destination(feeAddr, fee))
	}
	dests = append(dests, destination(destAddress, amount))

	txID, err := c.submitAndConfirm(ctx, key, dests, c.cfg.ConfirmationsExternal, status)
	if err != nil {
		return "", err
	}

	c.logger.Info().Int64("sender", sender.ID).Str("destination", destAddress).
		Str("amount", amount.String()).Str("tx", txID).Msg("withdrawal confirmed")
	c.consolidateDetached(sender)
	return txID, nil
}

func checkAmount(amount *token.TokenAmount) error {
	if amount == nil || amount.Amount.Sign() <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	return nil
}

// destination builds one transfer output. Native amounts ride directly on
// the output; token amounts get a dust native output alongside.
func destination(addr string, amount *token.TokenAmount) node.Destination {
	if amount.Token.IsNative() {
		return node.Destination{Address: addr, Amount: new(big.Int).Set(amount.Amount)}
	}
	return node.Destination{
		Address: addr,
		Amount:  new(big.Int).Set(dustAmount),
		Tokens: []node.TokenOut{{
			ID:     amount.Token.ID,
			Amount: new(big.Int).Set(amount.Amount),
		}},
	}
}

// submitAndConfirm signs and submits the destination list, attaches the
// transaction id to the supplied status, and blocks until the requested
// confirmation depth. Status updates are suppressed on devnet.
func (c *Client) submitAndConfirm(ctx context.Context, key *wallet.Key, dests []node.Destination, depth int, status *Status) (string, error) {
	var step *Step
	if status != nil && !c.cfg.Devnet {
		status.SetExplorerURL(c.cfg.ExplorerURL)
		step = status.AddStep("")
	}

	signer, err := key.Signer()
	if err != nil {
		if step != nil {
			step.Failed()
		}
		return "", fmt.Errorf("signer: %w", err)
	}
	defer signer.Zero()

	txID, err := c.ledger.SubmitTransfer(ctx, signer, dests)
	if err != nil {
		if step != nil {
			step.Failed()
		}
		return "", classifyNodeError(err)
	}
	if step != nil {
		step.SetTxID(txID)
	}

	if err := c.waitConfirmed(ctx, txID, depth); err != nil {
		if step != nil {
			step.Failed()
		}
		return "", err
	}
	if step != nil {
		step.Confirmed()
	}
	return txID, nil
}

// waitConfirmed polls the transaction status until it reaches the given
// confirmation depth. A not-found status is fatal for the call. Context
// cancellation stops the poll; the transaction itself may still confirm
// on chain afterwards.
func (c *Client) waitConfirmed(ctx context.Context, txID string, depth int) error {
	interval := c.cfg.pollInterval()
	for {
		st, err := c.ledger.TransactionStatus(ctx, txID)
		if err != nil {
			return classifyNodeError(err)
		}
		switch st.Type {
		case node.TxConfirmed:
			if st.Confirmations >= depth {
				return nil
			}
		case node.TxMempooled:
			if depth <= 0 {
				return nil
			}
		case node.TxNotFound:
			return fmt.Errorf("transaction %s not found on chain", txID)
		default:
			return fmt.Errorf("unexpected transaction status %q for %s", st.Type, txID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// consolidateDetached runs the consolidation policy for each wallet in
// its own goroutine. Failures are logged and never reach the caller.
func (c *Client) consolidateDetached(users ...*store.User) {
	for _, u := range users {
		u := u
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), consolidateTimeout)
			defer cancel()
			if _, err := c.ConsolidateIfNeeded(ctx, u); err != nil {
				c.logger.Error().Err(err).Int64("user", u.ID).Msg("consolidation failed")
			}
		}()
	}
}
