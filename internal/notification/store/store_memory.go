// Package store persists notifications per recipient.
package store

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"grameengo/internal/notification/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	items map[id.NotificationID]*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemory) Create(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[n.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	c := *n
	s.items[n.ID] = &c
	return nil
}

// ListByRecipient returns the recipient's notifications newest first.
func (s *InMemory) ListByRecipient(ctx context.Context, recipient id.UserID, limit int) ([]*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []*models.Notification
	for _, n := range s.items {
		if n.RecipientID == recipient {
			c := *n
			out = append(out, &c)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead sets Read on a notification owned by recipient. Someone else's
// notification is reported as not found.
func (s *InMemory) MarkRead(ctx context.Context, recipient id.UserID, nID id.NotificationID) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[nID]
	if !ok || n.RecipientID != recipient {
		return nil, sentinel.ErrNotFound
	}
	n.Read = true
	c := *n
	return &c, nil
}
