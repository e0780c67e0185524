package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "grameengo/pkg/domain"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/audit/store/memory"
	"grameengo/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("db down") }
func (failingStore) ListByActor(context.Context, id.UserID) ([]audit.Event, error) {
	return nil, nil
}

func TestEmit(t *testing.T) {
	actorID := id.UserID(uuid.New())

	t.Run("persists with request time and category", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		m := NewMetrics(prometheus.NewRegistry())
		p := New(store, WithMetrics(m))

		now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)
		require.NoError(t, p.Emit(ctx, audit.Event{
			ActorID: actorID,
			Action:  string(audit.EventApplicationTransitioned),
		}))

		events, err := store.ListByActor(ctx, actorID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, now, events[0].Timestamp)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.EventsEmitted))
	})

	t.Run("rejects events without actor or action", func(t *testing.T) {
		p := New(memory.NewInMemoryStore())
		assert.ErrorIs(t, p.Emit(context.Background(), audit.Event{Action: "x"}), errMissingActor)
		assert.ErrorIs(t, p.Emit(context.Background(), audit.Event{ActorID: actorID}), errMissingAction)
	})

	t.Run("fails closed when the store fails", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		p := New(failingStore{}, WithMetrics(m))
		err := p.Emit(context.Background(), audit.Event{ActorID: actorID, Action: "mfi_created"})
		require.Error(t, err)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.PersistFailures))
	})
}
