package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

func testRegistry(t *testing.T, listURL string) *Registry {
	t.Helper()
	r, err := NewRegistry(NewStore(storage.NewMemory()), listURL)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestStore_PutAndLookups(t *testing.T) {
	s := NewStore(storage.NewMemory())

	tok := testToken("TsT", 6, 9)
	if err := s.Put(tok); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.ByID(tok.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Symbol != "TsT" || got.Decimals != 6 {
		t.Errorf("ByID = %+v, want stored token", got)
	}

	// Exact symbol: case must match.
	if _, err := s.BySymbol("TsT"); err != nil {
		t.Errorf("BySymbol exact case: %v", err)
	}
	if _, err := s.BySymbol("tst"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BySymbol wrong case: err = %v, want ErrNotFound", err)
	}

	// Folded symbol: any case.
	if _, err := s.BySymbolFold("TST"); err != nil {
		t.Errorf("BySymbolFold: %v", err)
	}

	if _, err := s.ByID(types.TokenID{0x77}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByID unknown: err = %v, want ErrNotFound", err)
	}
}

func TestEnsureNative_Idempotent(t *testing.T) {
	r := testRegistry(t, "")

	if err := r.EnsureNative(); err != nil {
		t.Fatalf("EnsureNative: %v", err)
	}
	if err := r.EnsureNative(); err != nil {
		t.Fatalf("EnsureNative twice: %v", err)
	}

	n, err := r.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	native, err := r.Native()
	if err != nil {
		t.Fatalf("Native: %v", err)
	}
	if native.Symbol != NativeSymbol || !native.IsNative() {
		t.Errorf("Native = %+v", native)
	}
}

func TestRegistry_AmountFromRaw_UnknownToken(t *testing.T) {
	r := testRegistry(t, "")
	if _, err := r.AmountFromRaw(types.TokenID{0x01}, "100"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_AmountFromDecimal(t *testing.T) {
	r := testRegistry(t, "")
	if err := r.EnsureNative(); err != nil {
		t.Fatalf("EnsureNative: %v", err)
	}

	a, err := r.AmountFromDecimal("kgx", "2")
	if err != nil {
		t.Fatalf("AmountFromDecimal: %v", err)
	}
	want := "2000000000000000000"
	if a.Amount.String() != want {
		t.Errorf("amount = %s, want %s", a.Amount, want)
	}
}

func TestRefresh_FetchesList(t *testing.T) {
	id := types.TokenID{0x42}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tokens":[{"id":"` + id.String() + `","name":"Test","symbol":"TST","decimals":6}]}`))
	}))
	defer srv.Close()

	r := testRegistry(t, srv.URL)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Native bootstrapped plus one fetched token.
	n, err := r.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	got, err := r.ByID(id)
	if err != nil {
		t.Fatalf("ByID after refresh: %v", err)
	}
	if got.Symbol != "TST" {
		t.Errorf("Symbol = %q, want TST", got.Symbol)
	}
}

func TestRefresh_NoURL_BootstrapsNativeOnly(t *testing.T) {
	r := testRegistry(t, "")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	n, _ := r.Count()
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestRefresh_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := testRegistry(t, srv.URL)
	if err := r.Refresh(context.Background()); err == nil {
		t.Error("Refresh should surface server errors")
	}
}
