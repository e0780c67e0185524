package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "grameengo/pkg/domain"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/audit/store/memory"
	"grameengo/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actorID := id.UserID(uuid.New())
	event := audit.Event{
		ActorID: actorID,
		Action:  string(audit.EventApplicationSubmitted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventApplicationSubmitted), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	actorID := id.UserID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ActorID: actorID,
			Action:  string(audit.EventNotificationRead),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByActor(context.Background(), actorID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	actorID := id.UserID(uuid.New())
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pub.Emit(context.Background(), audit.Event{
				ActorID: actorID,
				Action:  string(audit.EventNotificationRead),
			}))
		}()
	}
	wg.Wait()
	pub.Close()

	events, err := store.ListByActor(context.Background(), actorID)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 10)
}

func TestPublisher_Enrichment(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actor := id.Actor{ID: id.UserID(uuid.New()), Role: id.RoleOfficer}
	ctx := requestcontext.WithActor(context.Background(), actor)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "curl/8.0", "curl 8.0")

	before := time.Now()
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventAuthorizationDenied)}))

	events, err := pub.List(context.Background(), actor.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.Timestamp.Before(before))
	assert.Equal(t, "officer", got.ActorRole)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, "203.0.113.9", got.ClientIP)
	assert.Equal(t, audit.CategorySecurity, got.Category)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actorID := id.UserID(uuid.New())
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		ActorID:   actorID,
		Action:    string(audit.EventMFICreated),
		Timestamp: customTime,
	}))

	events, err := pub.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}
