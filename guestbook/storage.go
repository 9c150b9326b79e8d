package guestbook

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SierraSoftworks/connor"
	"github.com/google/btree"
	"github.com/google/uuid"
)

// Storage errors form a small taxonomy: the specific values wrap ErrStorage,
// so an action can map each one to its own status and still catch anything
// else from the store through the ancestor.
var (
	ErrStorage        = errors.New("storage error")
	ErrEntryNotFound  = fmt.Errorf("%w: entry not found", ErrStorage)
	ErrDuplicateEntry = fmt.Errorf("%w: duplicate entry", ErrStorage)
	ErrInvalidFilter  = fmt.Errorf("%w: invalid filter", ErrStorage)
)

// Entry is one guestbook message.
type Entry struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Storage keeps entries in memory, indexed by id and ordered by creation
// time for listing. Safe for concurrent use.
type Storage struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	byTime  *btree.BTreeG[*Entry]
}

func NewStorage() *Storage {
	return &Storage{
		entries: map[string]*Entry{},
		byTime: btree.NewG(32, func(a, b *Entry) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}),
	}
}

// Insert stores a new entry, minting an id and a creation time when the
// caller left them empty.
func (s *Storage) Insert(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return fmt.Errorf("entry '%s': %w", entry.ID, ErrDuplicateEntry)
	}
	s.entries[entry.ID] = entry
	s.byTime.ReplaceOrInsert(entry)
	return nil
}

func (s *Storage) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.entries[id]
	if !exists {
		return nil, fmt.Errorf("entry '%s': %w", id, ErrEntryNotFound)
	}
	return entry, nil
}

func (s *Storage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, exists := s.entries[id]
	if !exists {
		return fmt.Errorf("entry '%s': %w", id, ErrEntryNotFound)
	}
	delete(s.entries, id)
	s.byTime.Delete(entry)
	return nil
}

// List returns up to limit entries in creation order, keeping the ones the
// filter matches. An empty filter matches everything.
func (s *Storage) List(filter map[string]any, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hasFilter := len(filter) > 0
	result := []*Entry{}
	var filterErr error
	s.byTime.Ascend(func(entry *Entry) bool {
		if len(result) == limit {
			return false
		}
		if hasFilter {
			match, err := connor.Match(filter, entry.document())
			if err != nil {
				filterErr = fmt.Errorf("%w: %s", ErrInvalidFilter, err.Error())
				return false
			}
			if !match {
				return true
			}
		}
		result = append(result, entry)
		return true
	})
	if filterErr != nil {
		return nil, filterErr
	}
	return result, nil
}

func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// document is the entry as connor sees it.
func (e *Entry) document() map[string]any {
	return map[string]any{
		"id":      e.ID,
		"author":  e.Author,
		"message": e.Message,
		"website": e.Website,
	}
}
