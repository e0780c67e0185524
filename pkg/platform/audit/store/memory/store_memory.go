package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "grameengo/pkg/domain"
	audit "grameengo/pkg/platform/audit"
)

// InMemoryStore keeps events in process. It doubles as an outbox so the
// relay can be exercised without a database.
type InMemoryStore struct {
	mu        sync.Mutex
	events    []audit.Event
	published map[uuid.UUID]bool
	claimed   map[uuid.UUID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		published: make(map[uuid.UUID]bool),
		claimed:   make(map[uuid.UUID]bool),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.published = make(map[uuid.UUID]bool)
	s.claimed = make(map[uuid.UUID]bool)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID id.UserID) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event{}, s.events...), nil
}

// Unpublished counts events the relay has not delivered yet.
func (s *InMemoryStore) Unpublished() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if !s.published[e.ID] {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) Claim(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error) {
	s.mu.Lock()
	var batch []audit.OutboxEntry
	for _, e := range s.events {
		if len(batch) >= limit {
			break
		}
		if s.published[e.ID] || s.claimed[e.ID] {
			continue
		}
		payload, err := audit.Encode(e)
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		s.claimed[e.ID] = true
		batch = append(batch, audit.OutboxEntry{
			ID:          e.ID,
			AggregateID: e.SubjectID,
			EventType:   e.Action,
			Payload:     payload,
			CreatedAt:   e.Timestamp,
		})
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	err := publish(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range batch {
		delete(s.claimed, entry.ID)
		if err == nil {
			s.published[entry.ID] = true
		}
	}
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}
