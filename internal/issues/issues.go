// Package issues caches the active issues shown on the dashboard.
package issues

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/rs/zerolog"
)

// API is the subset of the REST client the store needs
type API interface {
	ActiveIssues(ctx context.Context) ([]client.Issue, error)
}

// Store holds the last fetched list of active issues
type Store struct {
	api    API
	logger zerolog.Logger

	mu        sync.RWMutex
	active    []client.Issue
	fetchedAt time.Time
}

// NewStore creates an empty store
func NewStore(api API, logger zerolog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// FetchActive replaces the cached list with the server's
func (s *Store) FetchActive(ctx context.Context) error {
	list, err := s.api.ActiveIssues(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch active issues: %w", err)
	}

	s.mu.Lock()
	s.active = list
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(list)).Msg("Active issues refreshed")
	return nil
}

// Active returns a copy of the cached list
func (s *Store) Active() []client.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.Issue{}, s.active...)
}

// FetchedAt returns when the list was last refreshed; zero if never
func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}
