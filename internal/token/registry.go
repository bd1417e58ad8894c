package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Klingon-tech/klingnet-tipbot/internal/log"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// cacheSize bounds the by-ID lookup cache. Token lists are small; this is
// generous.
const cacheSize = 256

// Registry is the read-mostly token lookup used by the custody engine.
// Writes happen only through the idempotent native-asset bootstrap and the
// wholesale list refresh.
type Registry struct {
	store *Store
	cache *lru.Cache[types.TokenID, *Token]

	refreshMu sync.Mutex
	listURL   string
	httpc     *http.Client
}

// NewRegistry creates a registry over the given store. listURL is the
// published token list for the active network; empty disables refresh
// (devnet).
func NewRegistry(store *Store, listURL string) (*Registry, error) {
	cache, err := lru.New[types.TokenID, *Token](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	return &Registry{
		store:   store,
		cache:   cache,
		listURL: listURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// ByID resolves a token by its chain identifier.
func (r *Registry) ByID(id types.TokenID) (*Token, error) {
	if t, ok := r.cache.Get(id); ok {
		return t, nil
	}
	t, err := r.store.ByID(id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, t)
	return t, nil
}

// Put stores a token descriptor, dropping any stale cache entry.
func (r *Registry) Put(t *Token) error {
	if err := r.store.Put(t); err != nil {
		return err
	}
	r.cache.Remove(t.ID)
	return nil
}

// BySymbol resolves a token by exact symbol.
func (r *Registry) BySymbol(symbol string) (*Token, error) {
	return r.store.BySymbol(symbol)
}

// BySymbolFold resolves a token by case-insensitive symbol.
func (r *Registry) BySymbolFold(symbol string) (*Token, error) {
	return r.store.BySymbolFold(symbol)
}

// Native returns the chain's native asset descriptor from the registry.
func (r *Registry) Native() (*Token, error) {
	return r.ByID(types.NativeTokenID)
}

// AmountFromRaw resolves the token with the given ID and builds an amount
// from its raw integer wire representation.
func (r *Registry) AmountFromRaw(id types.TokenID, raw string) (*TokenAmount, error) {
	t, err := r.ByID(id)
	if err != nil {
		return nil, fmt.Errorf("amount of %s: %w", id, err)
	}
	return AmountFromRaw(raw, t)
}

// AmountFromDecimal resolves a token by case-insensitive symbol and converts
// a human decimal string into an amount using the token's precision.
func (r *Registry) AmountFromDecimal(symbol, s string) (*TokenAmount, error) {
	t, err := r.BySymbolFold(symbol)
	if err != nil {
		return nil, err
	}
	return AmountFromDecimal(s, t)
}

// EnsureNative inserts the native asset descriptor if it is absent.
// Safe to call on every startup.
func (r *Registry) EnsureNative() error {
	has, err := r.store.Has(types.NativeTokenID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return r.store.Put(NativeToken())
}

// Count returns the number of known tokens.
func (r *Registry) Count() (int, error) {
	return r.store.Count()
}

// List returns all known tokens.
func (r *Registry) List() ([]*Token, error) {
	return r.store.List()
}

// tokenList is the wire format of the published token list.
type tokenList struct {
	Tokens []Token `json:"tokens"`
}

// Refresh replaces the stored token set from the published token list.
// It is a no-op when no list URL is configured and never removes the
// native asset. Serialized with a mutex so overlapping cron ticks cannot
// interleave writes.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	if err := r.EnsureNative(); err != nil {
		return fmt.Errorf("bootstrap native token: %w", err)
	}

	if r.listURL == "" {
		log.Tokens.Debug().Msg("no token list configured, skipping refresh")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.listURL, nil)
	if err != nil {
		return fmt.Errorf("token list request: %w", err)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token list returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token list: %w", err)
	}

	var list tokenList
	if err := json.Unmarshal(body, &list); err != nil {
		return fmt.Errorf("decode token list: %w", err)
	}

	before, err := r.store.Count()
	if err != nil {
		return err
	}

	for i := range list.Tokens {
		t := list.Tokens[i]
		if err := r.store.Put(&t); err != nil {
			return fmt.Errorf("store token %s: %w", t.Symbol, err)
		}
	}
	r.cache.Purge()

	log.Tokens.Info().
		Int("updated", len(list.Tokens)).
		Int("before", before).
		Msg("token list refreshed")
	return nil
}

// RefreshLoop runs Refresh on the given interval until ctx is cancelled.
// One refresh runs immediately.
func (r *Registry) RefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil {
			log.Tokens.Error().Err(err).Msg("token refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
