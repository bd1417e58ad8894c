package custody

import (
	"context"
	"testing"

	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
)

func TestConsolidateBelowThreshold(t *testing.T) {
	ledger := &fakeLedger{
		balanceFn: func(addr string, mempool bool) (*node.Balance, error) {
			return &node.Balance{Balance: "0", UTXONum: 9}, nil
		},
	}
	c, _, _ := newTestClient(t, ledger, Config{UTXOThreshold: 10})
	alice := registerUser(t, c, 1, "alice")

	txs, err := c.ConsolidateIfNeeded(context.Background(), alice)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if txs != "" {
		t.Errorf("txs = %q, want none", txs)
	}
	if ledger.sweepBuilds != 0 {
		t.Errorf("sweep builds = %d, want 0", ledger.sweepBuilds)
	}
}

func TestConsolidateAtThreshold(t *testing.T) {
	ledger := &fakeLedger{
		balanceFn: func(addr string, mempool bool) (*node.Balance, error) {
			return &node.Balance{Balance: "0", UTXONum: 10}, nil
		},
		sweepFn: func(pub []byte, to string) ([]string, error) {
			return []string{"aa", "bb"}, nil
		},
	}
	c, _, _ := newTestClient(t, ledger, Config{UTXOThreshold: 10})
	alice := registerUser(t, c, 1, "alice")

	txs, err := c.ConsolidateIfNeeded(context.Background(), alice)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if txs != "sweep-aa, sweep-bb" {
		t.Errorf("txs = %q", txs)
	}
	if ledger.sweepBuilds != 1 {
		t.Errorf("sweep builds = %d, want exactly 1", ledger.sweepBuilds)
	}
}

func TestConsolidateSweepsToSelf(t *testing.T) {
	var sweepTo string
	ledger := &fakeLedger{
		balanceFn: func(addr string, mempool bool) (*node.Balance, error) {
			return &node.Balance{Balance: "0", UTXONum: 50}, nil
		},
		sweepFn: func(pub []byte, to string) ([]string, error) {
			sweepTo = to
			return []string{"aa"}, nil
		},
	}
	c, _, _ := newTestClient(t, ledger, Config{UTXOThreshold: 10})
	alice := registerUser(t, c, 1, "alice")

	if _, err := c.ConsolidateIfNeeded(context.Background(), alice); err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if sweepTo != alice.Address {
		t.Errorf("sweep destination = %q, want own address %q", sweepTo, alice.Address)
	}
}

func TestConsolidateMempoolFlag(t *testing.T) {
	var sawMempool bool
	ledger := &fakeLedger{
		balanceFn: func(addr string, mempool bool) (*node.Balance, error) {
			sawMempool = mempool
			return &node.Balance{Balance: "0", UTXONum: 0}, nil
		},
	}
	c, _, _ := newTestClient(t, ledger, Config{UTXOThreshold: 10, ConsiderMempool: true})
	alice := registerUser(t, c, 1, "alice")

	if _, err := c.ConsolidateIfNeeded(context.Background(), alice); err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if !sawMempool {
		t.Error("mempool flag not passed to balance query")
	}
}

func TestConsolidateDisabled(t *testing.T) {
	ledger := &fakeLedger{
		balanceFn: func(addr string, mempool bool) (*node.Balance, error) {
			t.Error("balance queried with consolidation disabled")
			return nil, nil
		},
	}
	c, _, _ := newTestClient(t, ledger, Config{})
	alice := registerUser(t, c, 1, "alice")

	txs, err := c.ConsolidateIfNeeded(context.Background(), alice)
	if err != nil || txs != "" {
		t.Errorf("disabled consolidation: txs=%q err=%v", txs, err)
	}
}
