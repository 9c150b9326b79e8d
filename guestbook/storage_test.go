package guestbook

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/fulldump/biff"
)

func TestStorageInsertMintsIdAndCreationTime(t *testing.T) {

	s := NewStorage()
	entry := &Entry{Author: "ada", Message: "hello"}

	err := s.Insert(entry)

	AssertNil(err)
	AssertEqual(len(entry.ID), 36)
	AssertFalse(entry.CreatedAt.IsZero())
}

func TestStorageInsertKeepsCallerId(t *testing.T) {

	s := NewStorage()
	entry := &Entry{ID: "my-id", Author: "ada", Message: "hello"}

	err := s.Insert(entry)

	AssertNil(err)

	found, err := s.Get("my-id")
	AssertNil(err)
	AssertEqual(found.Author, "ada")
}

func TestStorageInsertDuplicateId(t *testing.T) {

	s := NewStorage()
	AssertNil(s.Insert(&Entry{ID: "my-id", Author: "ada", Message: "hello"}))

	err := s.Insert(&Entry{ID: "my-id", Author: "grace", Message: "again"})

	AssertTrue(errors.Is(err, ErrDuplicateEntry))
	AssertTrue(errors.Is(err, ErrStorage))
	AssertEqual(s.Count(), 1)
}

func TestStorageGetMissing(t *testing.T) {

	s := NewStorage()

	_, err := s.Get("nope")

	AssertTrue(errors.Is(err, ErrEntryNotFound))
	AssertTrue(errors.Is(err, ErrStorage))
}

func TestStorageDelete(t *testing.T) {

	s := NewStorage()
	AssertNil(s.Insert(&Entry{ID: "my-id", Author: "ada", Message: "hello"}))

	AssertNil(s.Delete("my-id"))
	AssertEqual(s.Count(), 0)

	_, err := s.Get("my-id")
	AssertTrue(errors.Is(err, ErrEntryNotFound))

	err = s.Delete("my-id")
	AssertTrue(errors.Is(err, ErrEntryNotFound))

	entries, err := s.List(nil, 10)
	AssertNil(err)
	AssertEqual(len(entries), 0)
}

func TestStorageListInCreationOrder(t *testing.T) {

	s := NewStorage()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// inserted newest first on purpose
	AssertNil(s.Insert(&Entry{ID: "c", Author: "carol", Message: "third", CreatedAt: t0.Add(2 * time.Hour)}))
	AssertNil(s.Insert(&Entry{ID: "a", Author: "ada", Message: "first", CreatedAt: t0}))
	AssertNil(s.Insert(&Entry{ID: "b", Author: "grace", Message: "second", CreatedAt: t0.Add(time.Hour)}))

	entries, err := s.List(nil, 10)

	AssertNil(err)
	AssertEqual(len(entries), 3)
	AssertEqual(entries[0].ID, "a")
	AssertEqual(entries[1].ID, "b")
	AssertEqual(entries[2].ID, "c")
}

func TestStorageListLimit(t *testing.T) {

	s := NewStorage()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		AssertNil(s.Insert(&Entry{
			ID:        fmt.Sprintf("id-%d", i),
			Author:    "ada",
			Message:   "hello",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.List(nil, 2)

	AssertNil(err)
	AssertEqual(len(entries), 2)
	AssertEqual(entries[0].ID, "id-0")
	AssertEqual(entries[1].ID, "id-1")
}

func TestStorageListFilter(t *testing.T) {

	s := NewStorage()
	AssertNil(s.Insert(&Entry{ID: "a", Author: "ada", Message: "hello"}))
	AssertNil(s.Insert(&Entry{ID: "b", Author: "grace", Message: "hi"}))
	AssertNil(s.Insert(&Entry{ID: "c", Author: "ada", Message: "bye"}))

	entries, err := s.List(map[string]any{"author": "ada"}, 10)
	AssertNil(err)
	AssertEqual(len(entries), 2)

	entries, err = s.List(map[string]any{"author": "nobody"}, 10)
	AssertNil(err)
	AssertEqual(len(entries), 0)
}

func TestStorageConcurrentInserts(t *testing.T) {

	s := NewStorage()
	n := 100

	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Insert(&Entry{
				Author:  fmt.Sprintf("author-%d", i),
				Message: "hello",
			})
			AssertNil(err)
		}(i)
	}
	wg.Wait()

	AssertEqual(s.Count(), n)

	entries, err := s.List(nil, n)
	AssertNil(err)
	AssertEqual(len(entries), n)
}
