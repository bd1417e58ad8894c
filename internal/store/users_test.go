package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
)

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	s := NewUserStore(storage.NewMemory())

	for i := int64(1); i <= 3; i++ {
		u, err := s.Create(&User{ChatID: 1000 + i, Username: fmt.Sprintf("user%d", i)})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if u.ID != i {
			t.Errorf("Create assigned ID %d, want %d", u.ID, i)
		}
	}
}

func TestCreate_DuplicateChatID(t *testing.T) {
	s := NewUserStore(storage.NewMemory())

	if _, err := s.Create(&User{ChatID: 42, Username: "first"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(&User{ChatID: 42, Username: "second"}); !errors.Is(err, ErrDuplicateChatID) {
		t.Errorf("err = %v, want ErrDuplicateChatID", err)
	}

	n, _ := s.Count()
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestByChatID_And_Update(t *testing.T) {
	s := NewUserStore(storage.NewMemory())

	u, err := s.Create(&User{ChatID: 7, Username: "alice"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.Address = "kgx1exampleaddress"
	if err := s.Update(u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.ByChatID(7)
	if err != nil {
		t.Fatalf("ByChatID: %v", err)
	}
	if got.Address != u.Address || got.ID != u.ID {
		t.Errorf("ByChatID = %+v, want %+v", got, u)
	}
}

func TestUpdate_MissingUser(t *testing.T) {
	s := NewUserStore(storage.NewMemory())
	if err := s.Update(&User{ID: 99, ChatID: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestByID_NotFound(t *testing.T) {
	s := NewUserStore(storage.NewMemory())
	if _, err := s.ByID(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.ByChatID(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPage_OrderedAndBounded(t *testing.T) {
	s := NewUserStore(storage.NewMemory())

	const total = 75
	for i := 0; i < total; i++ {
		if _, err := s.Create(&User{ChatID: int64(10000 + i)}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	seen := make(map[int64]bool)
	var lastID int64
	for offset := 0; offset < total; offset += 30 {
		page, err := s.Page(offset, 30)
		if err != nil {
			t.Fatalf("Page(%d, 30): %v", offset, err)
		}
		for _, u := range page {
			if u.ID <= lastID {
				t.Errorf("page ordering broken: id %d after %d", u.ID, lastID)
			}
			lastID = u.ID
			if seen[u.ID] {
				t.Errorf("user %d returned twice", u.ID)
			}
			seen[u.ID] = true
		}
	}

	if len(seen) != total {
		t.Errorf("paged scan visited %d users, want %d", len(seen), total)
	}
}

func TestPage_PastEnd(t *testing.T) {
	s := NewUserStore(storage.NewMemory())
	if _, err := s.Create(&User{ChatID: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := s.Page(30, 30)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("Page past end returned %d users, want 0", len(page))
	}
}
