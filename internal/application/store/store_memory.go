// Package store persists applications. Execute is the only way to change a
// stored application: it loads, checks and writes under a per-store lock
// (in memory) or a row lock (postgres), so two concurrent transitions on one
// application can never both succeed.
package store

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"grameengo/internal/application/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
)

// InMemory is a thread-safe application store.
type InMemory struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemory) Create(ctx context.Context, app *models.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.apps[app.ID] = clone(app)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(app), nil
}

// List returns applications passing filter, newest first, at most limit
// (limit ≤ 0 means all).
func (s *InMemory) List(ctx context.Context, filter policy.Filter, limit int) ([]*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		if filter.Matches(app.BorrowerID, app.MFIID) {
			out = append(out, clone(app))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, newestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Execute runs validate then mutate on the stored application while holding
// the write lock. Nothing is written when validate fails.
func (s *InMemory) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.apps[appID] = working
	return clone(working), nil
}

func newestFirst(a, b *models.Application) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	// Ties keep a stable order across calls.
	return bytes.Compare(b.ID[:], a.ID[:])
}

func clone(app *models.Application) *models.Application {
	c := *app
	if app.OfficerID != nil {
		v := *app.OfficerID
		c.OfficerID = &v
	}
	if app.OfficerNotes != nil {
		v := *app.OfficerNotes
		c.OfficerNotes = &v
	}
	if app.RejectionReason != nil {
		v := *app.RejectionReason
		c.RejectionReason = &v
	}
	if app.DisbursedAt != nil {
		v := *app.DisbursedAt
		c.DisbursedAt = &v
	}
	return &c
}
