package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "promisetracker/pkg/domain"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/audit/store/memory"
	"promisetracker/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	promiseID := id.NewPromiseID().String()
	err := pub.Emit(context.Background(), audit.Event{
		Subject: promiseID,
		Action:  string(audit.EventPromiseEvaluated),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), promiseID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventPromiseEvaluated), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	promiseID := id.NewPromiseID().String()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Subject: promiseID,
			Action:  string(audit.EventResultCreated),
		}))
	}

	pub.Close()

	events, err := store.ListBySubject(context.Background(), promiseID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DoesNotBlock(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventUserCreated)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_EnrichesEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	before := time.Now()
	require.NoError(t, pub.Emit(ctx, audit.Event{Subject: "s", Action: string(audit.EventPartyCreated)}))

	events, err := pub.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-123", events[0].RequestID)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.False(t, events[0].Timestamp.Before(before))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject:   "s",
		Action:    string(audit.EventUserBanned),
		Timestamp: customTime,
	}))

	events, err := pub.List(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_CancelledContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventUserCreated)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_EmitAfterCloseFallsBackToSync(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))
	pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "late", Action: string(audit.EventUserDeleted)}))
	events, err := store.ListBySubject(context.Background(), "late")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
