package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
)

// RemoteAPI is the slice of the persistence service the store needs.
// Implemented by client.WorkflowClient.
type RemoteAPI interface {
	List(ctx context.Context) ([]WorkflowDefinition, error)
	Get(ctx context.Context, workflowID string) (*WorkflowDefinition, error)
	Create(ctx context.Context, def *WorkflowDefinition) (*WorkflowDefinition, error)
	Update(ctx context.Context, workflowID string, def *WorkflowDefinition) (*WorkflowDefinition, error)
	Delete(ctx context.Context, workflowID string) error
}

// WorkflowStore caches workflow definitions read from the persistence
// service. The cache is updated only after a remote call succeeds, so
// a failed mutation leaves local state exactly as it was before the
// call.
type WorkflowStore struct {
	remote RemoteAPI
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[string]WorkflowDefinition
}

// NewWorkflowStore creates an empty store over the remote API.
func NewWorkflowStore(remote RemoteAPI, log zerolog.Logger) *WorkflowStore {
	return &WorkflowStore{
		remote: remote,
		log:    log,
		cache:  make(map[string]WorkflowDefinition),
	}
}

// Refresh replaces the cache with the remote list.
func (s *WorkflowStore) Refresh(ctx context.Context) error {
	defs, err := s.remote.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]WorkflowDefinition, len(defs))
	for _, d := range defs {
		s.cache[d.WorkflowID] = d
	}
	s.log.Debug().Int("count", len(defs)).Msg("Workflow cache refreshed")
	return nil
}

// List returns all cached definitions.
func (s *WorkflowStore) List() []WorkflowDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WorkflowDefinition, 0, len(s.cache))
	for _, d := range s.cache {
		out = append(out, d)
	}
	return out
}

// Get returns one definition, falling back to the remote service on a
// cache miss. The fetched definition is cached for later reads.
func (s *WorkflowStore) Get(ctx context.Context, workflowID string) (*WorkflowDefinition, error) {
	s.mu.RLock()
	if d, ok := s.cache[workflowID]; ok {
		s.mu.RUnlock()
		return &d, nil
	}
	s.mu.RUnlock()

	d, err := s.remote.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[d.WorkflowID] = *d
	s.mu.Unlock()
	return d, nil
}

// Create stores a new definition remotely, then caches it. A workflow
// id maps to exactly one definition; creating over an existing id is
// refused locally before any round-trip.
func (s *WorkflowStore) Create(ctx context.Context, def *WorkflowDefinition) (*WorkflowDefinition, error) {
	s.mu.RLock()
	_, exists := s.cache[def.WorkflowID]
	s.mu.RUnlock()
	if exists {
		return nil, apperr.New(apperr.CodeConflictBlocked,
			"workflow "+def.WorkflowID+" already has a definition")
	}

	created, err := s.remote.Create(ctx, def)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[created.WorkflowID] = *created
	s.mu.Unlock()
	return created, nil
}

// Update replaces a definition remotely, then updates the cache.
func (s *WorkflowStore) Update(ctx context.Context, workflowID string, def *WorkflowDefinition) (*WorkflowDefinition, error) {
	updated, err := s.remote.Update(ctx, workflowID, def)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[updated.WorkflowID] = *updated
	s.mu.Unlock()
	return updated, nil
}

// Delete removes a definition remotely, then evicts it from the cache.
func (s *WorkflowStore) Delete(ctx context.Context, workflowID string) error {
	if err := s.remote.Delete(ctx, workflowID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, workflowID)
	s.mu.Unlock()
	return nil
}
