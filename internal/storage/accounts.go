// Package storage persists account state and portfolio history as JSON
// files on disk, one file per user.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]{3,20}$`)

// SanitizeUsername lowercases and validates a username. It rejects
// anything that could escape the users directory.
func SanitizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if !usernamePattern.MatchString(username) {
		return "", domain.Invalidf("username must be 3-20 characters of a-z, 0-9, _ or -")
	}
	if strings.Contains(username, "..") || strings.ContainsAny(username, `/\`) {
		return "", domain.Invalidf("invalid username")
	}
	return username, nil
}

// AccountStore reads and writes one JSON file per account. Writes go
// through a temp file and rename so a crash never leaves a torn file,
// and a per-account mutex serializes concurrent read-modify-write cycles
// on the same user.
type AccountStore struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountStore creates the store and its backing directory
func NewAccountStore(dir string) (*AccountStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create accounts directory: %w", err)
	}
	return &AccountStore{
		dir:    dir,
		logger: log.With().Str("component", "account_store").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (s *AccountStore) lock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

func (s *AccountStore) path(username string) string {
	return filepath.Join(s.dir, username+".json")
}

// Exists reports whether an account file is present for the username
func (s *AccountStore) Exists(username string) bool {
	username, err := SanitizeUsername(username)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(s.path(username))
	return statErr == nil
}

// Load reads an account from disk. Returns domain.ErrUserNotFound when
// no file exists for the username.
func (s *AccountStore) Load(username string) (*domain.Account, error) {
	username, err := SanitizeUsername(username)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var acc domain.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("failed to parse account file for %s: %w", username, err)
	}
	if acc.Positions == nil {
		acc.Positions = []domain.Position{}
	}
	if acc.Transactions == nil {
		acc.Transactions = []domain.Transaction{}
	}
	if acc.Goals == nil {
		acc.Goals = []domain.Goal{}
	}
	return &acc, nil
}

// Save writes the account atomically via a temp file and rename
func (s *AccountStore) Save(username string, acc *domain.Account) error {
	username, err := SanitizeUsername(username)
	if err != nil {
		return err
	}
	return writeJSONAtomic(s.path(username), acc)
}

// GetOrCreate loads an account, creating an empty one on first login
func (s *AccountStore) GetOrCreate(username string, now time.Time) (*domain.Account, bool, error) {
	username, err := SanitizeUsername(username)
	if err != nil {
		return nil, false, err
	}

	l := s.lock(username)
	l.Lock()
	defer l.Unlock()

	acc, err := s.Load(username)
	if err == nil {
		return acc, false, nil
	}
	if err != domain.ErrUserNotFound {
		return nil, false, err
	}

	acc = domain.NewAccount(username, now)
	if err := s.Save(username, acc); err != nil {
		return nil, false, err
	}
	s.logger.Info().Str("username", username).Msg("Created new account")
	return acc, true, nil
}

// Update runs fn inside the per-account lock and persists the result.
// If fn returns an error nothing is written and the error is returned
// unchanged, so failed mutations never leave partial state on disk.
func (s *AccountStore) Update(username string, fn func(*domain.Account) error) (*domain.Account, error) {
	username, err := SanitizeUsername(username)
	if err != nil {
		return nil, err
	}

	l := s.lock(username)
	l.Lock()
	defer l.Unlock()

	acc, err := s.Load(username)
	if err != nil {
		return nil, err
	}
	if err := fn(acc); err != nil {
		return nil, err
	}
	if err := s.Save(username, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// List returns the usernames of every stored account
func (s *AccountStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts directory: %w", err)
	}
	var usernames []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		usernames = append(usernames, strings.TrimSuffix(name, ".json"))
	}
	return usernames, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
