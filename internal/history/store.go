package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/ipintel/internal/cache"
	"github.com/ppiankov/ipintel/internal/model"
)

// DefaultMaxItems is how many lookups are remembered when no limit is configured
const DefaultMaxItems = 10

// Store keeps the most recent lookups, newest first, one entry per IP
type Store struct {
	mu       sync.Mutex
	cache    cache.Cache
	key      string
	maxItems int
	ttl      time.Duration

	now   func() time.Time
	newID func() string
}

// NewStore creates a history store persisted through c
func NewStore(c cache.Cache, maxItems int, ttl time.Duration) *Store {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Store{
		cache:    c,
		key:      cache.CacheKey("history"),
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Add records a completed lookup. An earlier entry for the same IP is replaced
// and the list is trimmed to the configured maximum.
func (s *Store) Add(record model.Record, risk model.Risk) (model.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return model.HistoryItem{}, err
	}

	item := model.HistoryItem{
		ID:        s.newID(),
		IPAddress: record.IPAddress,
		Record:    record,
		Risk:      risk,
		CheckedAt: s.now().UTC(),
	}

	next := make([]model.HistoryItem, 0, len(items)+1)
	next = append(next, item)
	for _, it := range items {
		if it.IPAddress == item.IPAddress {
			continue
		}
		next = append(next, it)
	}
	if len(next) > s.maxItems {
		next = next[:s.maxItems]
	}

	if err := s.save(next); err != nil {
		return model.HistoryItem{}, err
	}
	return item, nil
}

// List returns the remembered lookups, most recent first
func (s *Store) List() ([]model.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Clear forgets every lookup
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Delete(s.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) load() ([]model.HistoryItem, error) {
	data, found := s.cache.Get(s.key)
	if !found {
		return []model.HistoryItem{}, nil
	}

	var items []model.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if items == nil {
		items = []model.HistoryItem{}
	}
	return items, nil
}

func (s *Store) save(items []model.HistoryItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.cache.Set(s.key, data, s.ttl); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
