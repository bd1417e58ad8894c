// Package store persists chat users. Each user gets a sequential internal
// id at creation which doubles as the wallet derivation index.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateChatID is returned by Create when the chat id is taken.
var ErrDuplicateChatID = errors.New("chat id already registered")

// User is a registered chat user. ChatID is the immutable external identity;
// ID is assigned once by Create and never changes; Address is populated
// during registration and never reassigned.
type User struct {
	ID       int64  `json:"id"`
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
	Address  string `json:"address,omitempty"`
}

// Key layout:
//
//	"u/<id 8 BE>"      -> User JSON (ordered scan for paging)
//	"c/<chatID 8 BE>"  -> id 8 BE   (existence / lookup by chat id)
//	"seq"              -> last assigned id, 8 BE
var (
	prefixUser = []byte("u/")
	prefixChat = []byte("c/")
	keySeq     = []byte("seq")
)

// UserStore persists users in a key-value database.
type UserStore struct {
	db storage.DB

	seqMu sync.Mutex // guards the id sequence read-modify-write
}

// NewUserStore creates a user store.
func NewUserStore(db storage.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user, assigning the next sequential id.
// Fails with ErrDuplicateChatID if the chat id is already registered.
func (s *UserStore) Create(u *User) (*User, error) {
	has, err := s.db.Has(chatKey(u.ChatID))
	if err != nil {
		return nil, fmt.Errorf("check chat id: %w", err)
	}
	if has {
		return nil, ErrDuplicateChatID
	}

	id, err := s.nextID()
	if err != nil {
		return nil, err
	}

	stored := *u
	stored.ID = id
	if err := s.put(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update overwrites an existing user row.
func (s *UserStore) Update(u *User) error {
	if u.ID == 0 {
		return fmt.Errorf("update user without id")
	}
	has, err := s.db.Has(userKey(u.ID))
	if err != nil {
		return err
	}
	if !has {
		return ErrNotFound
	}
	return s.put(u)
}

// ExistsByChatID checks whether a user with the given chat id exists.
func (s *UserStore) ExistsByChatID(chatID int64) (bool, error) {
	return s.db.Has(chatKey(chatID))
}

// ByChatID retrieves a user by external chat id.
func (s *UserStore) ByChatID(chatID int64) (*User, error) {
	idBytes, err := s.db.Get(chatKey(chatID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat index get: %w", err)
	}
	return s.ByID(int64(binary.BigEndian.Uint64(idBytes)))
}

// ByID retrieves a user by internal id.
func (s *UserStore) ByID(id int64) (*User, error) {
	data, err := s.db.Get(userKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user get: %w", err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("user unmarshal: %w", err)
	}
	return &u, nil
}

// Count returns the number of stored users.
func (s *UserStore) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixUser, func(_, _ []byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Page returns up to limit users in id order, skipping the first offset.
func (s *UserStore) Page(offset, limit int) ([]*User, error) {
	var users []*User
	skipped := 0
	stop := errors.New("done")

	err := s.db.ForEach(prefixUser, func(_, value []byte) error {
		if skipped < offset {
			skipped++
			return nil
		}
		if len(users) >= limit {
			return stop
		}
		var u User
		if err := json.Unmarshal(value, &u); err != nil {
			return fmt.Errorf("user unmarshal: %w", err)
		}
		users = append(users, &u)
		return nil
	})
	if err != nil && !errors.Is(err, stop) {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) put(u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("user marshal: %w", err)
	}
	if err := s.db.Put(userKey(u.ID), data); err != nil {
		return fmt.Errorf("user put: %w", err)
	}
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], uint64(u.ID))
	if err := s.db.Put(chatKey(u.ChatID), idBytes[:]); err != nil {
		return fmt.Errorf("chat index put: %w", err)
	}
	return nil
}

// nextID increments and returns the id sequence. Ids start at 1.
func (s *UserStore) nextID() (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var last uint64
	data, err := s.db.Get(keySeq)
	if err == nil {
		last = binary.BigEndian.Uint64(data)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("sequence get: %w", err)
	}

	next := last + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	if err := s.db.Put(keySeq, buf[:]); err != nil {
		return 0, fmt.Errorf("sequence put: %w", err)
	}
	return int64(next), nil
}

func userKey(id int64) []byte {
	key := make([]byte, len(prefixUser)+8)
	copy(key, prefixUser)
	binary.BigEndian.PutUint64(key[len(prefixUser):], uint64(id))
	return key
}

func chatKey(chatID int64) []byte {
	key := make([]byte, len(prefixChat)+8)
	copy(key, prefixChat)
	binary.BigEndian.PutUint64(key[len(prefixChat):], uint64(chatID))
	return key
}
