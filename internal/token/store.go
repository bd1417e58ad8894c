package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// ErrNotFound is returned when a token is not known to the registry.
var ErrNotFound = errors.New("token not found")

// Key layout:
//
//	"t/<tokenID hex>"       -> Token JSON
//	"s/<lowercase symbol>"  -> tokenID hex
var (
	prefixToken  = []byte("t/")
	prefixSymbol = []byte("s/")
)

// Store persists token descriptors.
type Store struct {
	db storage.DB
}

// NewStore creates a token store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Put stores a token and indexes it by symbol. Existing rows with the same
// ID are overwritten, which is how the wholesale list refresh works.
func (s *Store) Put(t *Token) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	if err := s.db.Put(tokenKey(t.ID), data); err != nil {
		return fmt.Errorf("token put: %w", err)
	}
	if err := s.db.Put(symbolKey(t.Symbol), []byte(t.ID.String())); err != nil {
		return fmt.Errorf("token symbol index: %w", err)
	}
	return nil
}

// ByID retrieves a token by its chain identifier.
func (s *Store) ByID(id types.TokenID) (*Token, error) {
	data, err := s.db.Get(tokenKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("token %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	return &t, nil
}

// BySymbolFold retrieves a token by case-insensitive symbol.
func (s *Store) BySymbolFold(symbol string) (*Token, error) {
	idHex, err := s.db.Get(symbolKey(symbol))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("token %q: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("token symbol get: %w", err)
	}
	id, err := types.ParseTokenID(string(idHex))
	if err != nil {
		return nil, fmt.Errorf("corrupt symbol index for %q: %w", symbol, err)
	}
	return s.ByID(id)
}

// BySymbol retrieves a token by exact symbol.
func (s *Store) BySymbol(symbol string) (*Token, error) {
	t, err := s.BySymbolFold(symbol)
	if err != nil {
		return nil, err
	}
	if t.Symbol != symbol {
		return nil, fmt.Errorf("token %q: %w", symbol, ErrNotFound)
	}
	return t, nil
}

// Has checks whether a token with the given ID is stored.
func (s *Store) Has(id types.TokenID) (bool, error) {
	return s.db.Has(tokenKey(id))
}

// Count returns the number of stored tokens.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixToken, func(_, _ []byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// List returns all stored tokens.
func (s *Store) List() ([]*Token, error) {
	var tokens []*Token
	err := s.db.ForEach(prefixToken, func(_, value []byte) error {
		var t Token
		if err := json.Unmarshal(value, &t); err != nil {
			return nil // Skip corrupt entries.
		}
		tokens = append(tokens, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func tokenKey(id types.TokenID) []byte {
	return append(append([]byte{}, prefixToken...), id.String()...)
}

func symbolKey(symbol string) []byte {
	return append(append([]byte{}, prefixSymbol...), strings.ToLower(symbol)...)
}
