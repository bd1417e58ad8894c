// Package custody is the wallet orchestration engine: it registers chat
// users to deterministic custodial wallets, aggregates their balances,
// builds and submits fee-splitting transfers, tracks confirmations, and
// consolidates fragmented UTXOs.
package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-tipbot/internal/log"
	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
	"github.com/Klingon-tech/klingnet-tipbot/internal/wallet"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/crypto"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// Ledger is the fullnode surface the engine depends on.
type Ledger interface {
	AddressBalance(ctx context.Context, address string, mempool bool) (*node.Balance, error)
	TransactionStatus(ctx context.Context, txID string) (*node.TxStatus, error)
	SubmitTransfer(ctx context.Context, signer crypto.Signer, dests []node.Destination) (string, error)
	BuildSweep(ctx context.Context, fromPublicKey []byte, toAddress string) ([]string, error)
	SubmitUnsigned(ctx context.Context, signer crypto.Signer, unsignedTx string) (string, error)
}

// Config carries the operator policy knobs.
type Config struct {
	// FeePercent is the operator cut on external withdrawals, in whole
	// percent. Zero disables the fee destination.
	FeePercent int64
	// FeeAddresses holds one collection address per address group.
	FeeAddresses [types.NumGroups]string
	// Confirmation depths for internal transfers and external
	// withdrawals, independent knobs.
	ConfirmationsInternal int
	ConfirmationsExternal int
	// UTXOThreshold triggers consolidation when a wallet's UTXO count
	// reaches it. Zero disables consolidation.
	UTXOThreshold int
	// ConsiderMempool counts unconfirmed outputs toward the threshold.
	ConsiderMempool bool
	// PollInterval between confirmation status queries.
	PollInterval time.Duration
	// Devnet suppresses live status announcements.
	Devnet bool
	// ExplorerURL, when set, adds transaction links to status updates.
	ExplorerURL string
}

// DefaultPollInterval between transaction status queries.
const DefaultPollInterval = time.Second

func (c *Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

func (c *Config) validate() error {
	if c.FeePercent < 0 || c.FeePercent > 100 {
		return fmt.Errorf("fee percent %d out of range [0,100]", c.FeePercent)
	}
	if c.FeePercent > 0 {
		for g, addr := range c.FeeAddresses {
			if !types.IsValidAddress(addr) {
				return fmt.Errorf("fee address for group %d is invalid: %q", g, addr)
			}
		}
	}
	return nil
}

// Client coordinates users, wallets, tokens, and the fullnode.
type Client struct {
	ledger Ledger
	dir    *wallet.Directory
	users  *store.UserStore
	tokens *token.Registry
	cfg    Config
	logger zerolog.Logger

	// regMu serializes all registrations. Global on purpose: the
	// check-then-insert against the user store must never race, and
	// registration is rare enough that coarse locking costs nothing.
	regMu sync.Mutex
}

// NewClient creates the orchestration engine.
func NewClient(ledger Ledger, dir *wallet.Directory, users *store.UserStore, tokens *token.Registry, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("custody config: %w", err)
	}
	return &Client{
		ledger: ledger,
		dir:    dir,
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		logger: log.Custody,
	}, nil
}

// Register creates a user row and assigns its derived wallet address.
// Returns ErrAlreadyRegistered when the chat id is already taken; callers
// recover by fetching the existing user. A crash between row creation and
// address assignment heals on the next attempt for the same chat id.
func (c *Client) Register(chatID int64, username string) (*store.User, error) {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	existing, err := c.users.ByChatID(chatID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if err == nil {
		if existing.Address != "" {
			return nil, ErrAlreadyRegistered
		}
		// Incomplete earlier registration. Finish it.
		if err := c.assignAddress(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	u, err := c.users.Create(&store.User{ChatID: chatID, Username: username})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateChatID) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := c.assignAddress(u); err != nil {
		return nil, err
	}
	c.logger.Info().Int64("user", u.ID).Int64("chat", chatID).Str("address", u.Address).Msg("user registered")
	return u, nil
}

func (c *Client) assignAddress(u *store.User) error {
	key, err := c.dir.KeyFor(u.ID)
	if err != nil {
		return fmt.Errorf("derive wallet for user %d: %w", u.ID, err)
	}
	u.Address = key.Address().String()
	if err := c.users.Update(u); err != nil {
		return fmt.Errorf("store wallet address for user %d: %w", u.ID, err)
	}
	return nil
}

// WalletFor derives the signing wallet of a registered user.
func (c *Client) WalletFor(u *store.User) (*wallet.Key, error) {
	return c.dir.KeyFor(u.ID)
}

// AddressOf returns the user's stored wallet address, deriving and
// persisting it if an earlier registration was interrupted.
func (c *Client) AddressOf(u *store.User) (string, error) {
	if u.Address != "" {
		return u.Address, nil
	}
	key, err := c.dir.KeyFor(u.ID)
	if err != nil {
		return "", err
	}
	return key.Address().String(), nil
}

// UserByChatID fetches a registered user.
func (c *Client) UserByChatID(chatID int64) (*store.User, error) {
	return c.users.ByChatID(chatID)
}
