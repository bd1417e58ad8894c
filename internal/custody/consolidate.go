package custody

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
)

// consolidateTimeout bounds a detached consolidation run.
const consolidateTimeout = 5 * time.Minute

// ConsolidateIfNeeded sweeps the user's wallet back to itself when its
// UTXO count reaches the configured threshold. Returns the joined sweep
// transaction ids, or "" when no sweep was needed. Thresholds are
// evaluated independently on every call; there is no cooldown.
func (c *Client) ConsolidateIfNeeded(ctx context.Context, u *store.User) (string, error) {
	if c.cfg.UTXOThreshold <= 0 {
		return "", nil
	}

	key, err := c.dir.KeyFor(u.ID)
	if err != nil {
		return "", fmt.Errorf("wallet for user %d: %w", u.ID, err)
	}
	addr := key.Address().String()

	bal, err := c.ledger.AddressBalance(ctx, addr, c.cfg.ConsiderMempool)
	if err != nil {
		return "", classifyNodeError(err)
	}
	if bal.UTXONum < c.cfg.UTXOThreshold {
		c.logger.Debug().Int64("user", u.ID).Int("utxos", bal.UTXONum).
			Int("threshold", c.cfg.UTXOThreshold).Msg("no consolidation needed")
		return "", nil
	}

	unsigned, err := c.ledger.BuildSweep(ctx, key.PublicKey(), addr)
	if err != nil {
		return "", classifyNodeError(err)
	}

	signer, err := key.Signer()
	if err != nil {
		return "", fmt.Errorf("signer: %w", err)
	}
	defer signer.Zero()

	txIDs := make([]string, 0, len(unsigned))
	for _, tx := range unsigned {
		txID, err := c.ledger.SubmitUnsigned(ctx, signer, tx)
		if err != nil {
			return "", classifyNodeError(err)
		}
		txIDs = append(txIDs, txID)
	}

	joined := strings.Join(txIDs, ", ")
	c.logger.Info().Int64("user", u.ID).Int("utxos", bal.UTXONum).
		Str("txs", joined).Msg("wallet consolidated")
	return joined, nil
}
