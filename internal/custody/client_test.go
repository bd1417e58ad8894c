package custody

import (
	"errors"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

func TestRegisterAssignsAddress(t *testing.T) {
	c, users, _ := newTestClient(t, &fakeLedger{}, Config{})

	u := registerUser(t, c, 1001, "alice")
	if u.ID != 1 {
		t.Errorf("id = %d, want 1", u.ID)
	}
	if !types.IsValidAddress(u.Address) {
		t.Errorf("invalid derived address %q", u.Address)
	}

	stored, err := users.ByChatID(1001)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Address != u.Address {
		t.Errorf("stored address %q != returned %q", stored.Address, u.Address)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeLedger{}, Config{})

	registerUser(t, c, 1001, "alice")
	_, err := c.Register(1001, "alice")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	c, users, _ := newTestClient(t, &fakeLedger{}, Config{})

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Register(4242, "carol")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyRegistered):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}

	n, err := users.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("user rows = %d, want 1", n)
	}
}

func TestRegisterHealsMissingAddress(t *testing.T) {
	c, users, _ := newTestClient(t, &fakeLedger{}, Config{})

	// Simulate a crash between row creation and address assignment.
	if _, err := users.Create(&store.User{ChatID: 2002, Username: "dave"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	healed, err := c.Register(2002, "dave")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if healed.Address == "" {
		t.Error("address not assigned on retry")
	}

	stored, err := users.ByChatID(2002)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Address != healed.Address {
		t.Errorf("stored = %q, healed = %q", stored.Address, healed.Address)
	}
}

func TestWalletForDeterministic(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeLedger{}, Config{})

	alice := registerUser(t, c, 1, "alice")
	bob := registerUser(t, c, 2, "bob")

	k1, err := c.WalletFor(alice)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	k2, err := c.WalletFor(alice)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if k1.Address() != k2.Address() {
		t.Error("derivation not deterministic")
	}

	kb, err := c.WalletFor(bob)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if kb.Address() == k1.Address() {
		t.Error("distinct users derived the same address")
	}
	if alice.Address != k1.Address().String() {
		t.Errorf("stored address %q != derived %q", alice.Address, k1.Address())
	}
}
