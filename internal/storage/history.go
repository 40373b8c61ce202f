package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mbelardi/finanzas/internal/domain"
)

// HistoryStore keeps the persisted daily summary series per user, one
// JSON sidecar file next to nothing else. Entries are upserted by date
// so a recomputation of today never duplicates a row.
type HistoryStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewHistoryStore creates the store and its backing directory
func NewHistoryStore(dir string) (*HistoryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &HistoryStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *HistoryStore) lock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

func (s *HistoryStore) path(username string) string {
	return filepath.Join(s.dir, username+"_summary.json")
}

// Load returns the stored series sorted ascending by date. A missing
// file is an empty series, not an error.
func (s *HistoryStore) Load(username string) ([]domain.SummaryEntry, error) {
	username, err := SanitizeUsername(username)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(username))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.SummaryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []domain.SummaryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file for %s: %w", username, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

// Save replaces the whole series for a user
func (s *HistoryStore) Save(username string, entries []domain.SummaryEntry) error {
	username, err := SanitizeUsername(username)
	if err != nil {
		return err
	}

	l := s.lock(username)
	l.Lock()
	defer l.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return writeJSONAtomic(s.path(username), entries)
}

// Upsert merges new entries into the stored series, replacing rows that
// share a date with a recomputed value.
func (s *HistoryStore) Upsert(username string, entries []domain.SummaryEntry) error {
	username, err := SanitizeUsername(username)
	if err != nil {
		return err
	}

	l := s.lock(username)
	l.Lock()
	defer l.Unlock()

	existing, err := s.Load(username)
	if err != nil {
		return err
	}

	byDate := make(map[string]domain.SummaryEntry, len(existing)+len(entries))
	for _, e := range existing {
		byDate[e.Date] = e
	}
	for _, e := range entries {
		byDate[e.Date] = e
	}

	merged := make([]domain.SummaryEntry, 0, len(byDate))
	for _, e := range byDate {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return writeJSONAtomic(s.path(username), merged)
}
