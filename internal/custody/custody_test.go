package custody

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
	"github.com/Klingon-tech/klingnet-tipbot/internal/wallet"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/crypto"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeLedger implements Ledger with overridable behavior per call.
type fakeLedger struct {
	mu sync.Mutex

	balanceFn        func(addr string, mempool bool) (*node.Balance, error)
	statusFn         func(txID string) (*node.TxStatus, error)
	submitFn         func(dests []node.Destination) (string, error)
	sweepFn          func(pub []byte, to string) ([]string, error)
	submitUnsignedFn func(tx string) (string, error)

	submitted   [][]node.Destination
	sweepBuilds int
}

func (f *fakeLedger) AddressBalance(_ context.Context, addr string, mempool bool) (*node.Balance, error) {
	if f.balanceFn != nil {
		return f.balanceFn(addr, mempool)
	}
	return &node.Balance{Balance: "0"}, nil
}

func (f *fakeLedger) TransactionStatus(_ context.Context, txID string) (*node.TxStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(txID)
	}
	return &node.TxStatus{Type: node.TxConfirmed, Confirmations: 100}, nil
}

func (f *fakeLedger) SubmitTransfer(_ context.Context, _ crypto.Signer, dests []node.Destination) (string, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, dests)
	f.mu.Unlock()
	if f.submitFn != nil {
		return f.submitFn(dests)
	}
	return "tx-fake", nil
}

func (f *fakeLedger) BuildSweep(_ context.Context, pub []byte, to string) ([]string, error) {
	f.mu.Lock()
	f.sweepBuilds++
	f.mu.Unlock()
	if f.sweepFn != nil {
		return f.sweepFn(pub, to)
	}
	return []string{"aa"}, nil
}

func (f *fakeLedger) SubmitUnsigned(_ context.Context, _ crypto.Signer, tx string) (string, error) {
	if f.submitUnsignedFn != nil {
		return f.submitUnsignedFn(tx)
	}
	return "sweep-" + tx, nil
}

func (f *fakeLedger) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeLedger) lastSubmitted(t *testing.T) []node.Destination {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submitted) == 0 {
		t.Fatal("no transfer submitted")
	}
	return f.submitted[len(f.submitted)-1]
}

func testFeeAddresses() [types.NumGroups]string {
	// Raw hex addresses with the first byte pinning each group.
	var addrs [types.NumGroups]string
	addrs[0] = "00" + strings.Repeat("fe", 19)
	addrs[1] = "01" + strings.Repeat("fe", 19)
	addrs[2] = "02" + strings.Repeat("fe", 19)
	addrs[3] = "03" + strings.Repeat("fe", 19)
	return addrs
}

func newTestClient(t *testing.T, ledger Ledger, cfg Config) (*Client, *store.UserStore, *token.Registry) {
	t.Helper()

	users := store.NewUserStore(storage.NewMemory())
	registry, err := token.NewRegistry(token.NewStore(storage.NewMemory()), "")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := registry.EnsureNative(); err != nil {
		t.Fatalf("ensure native: %v", err)
	}
	dir := wallet.NewDirectory(wallet.StaticMnemonicReader(testMnemonic))

	cfg.PollInterval = time.Millisecond
	c, err := NewClient(ledger, dir, users, registry, cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c, users, registry
}

func registerUser(t *testing.T, c *Client, chatID int64, name string) *store.User {
	t.Helper()
	u, err := c.Register(chatID, name)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func nativeAmount(t *testing.T, reg *token.Registry, raw string) *token.TokenAmount {
	t.Helper()
	a, err := reg.AmountFromRaw(types.NativeTokenID, raw)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return a
}
