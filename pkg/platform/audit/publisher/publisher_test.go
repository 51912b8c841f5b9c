package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "boxoffice/pkg/platform/audit"
	"boxoffice/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventShowCreated),
		ShowID: 1,
	})
	require.NoError(t, err)

	events, err := store.ListByShow(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventShowCreated), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_DerivesFinancialCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventPassPurchased),
		ShowID: 2,
		Amount: 1000,
	}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryFinancial, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Action: string(audit.EventPassScanned),
			ShowID: 3,
		}))
	}

	pub.Close()

	events, err := store.ListByShow(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

type blockingStore struct {
	release chan struct{}
}

func (b *blockingStore) Append(_ context.Context, _ audit.Event) error {
	<-b.release
	return nil
}

func TestPublisher_BufferFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()
	defer close(store.release)

	var full error
	for range 5 {
		if err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventPassScanned)}); err != nil {
			full = err
			break
		}
	}
	assert.True(t, errors.Is(full, ErrBufferFull), "expected buffer full, got %v", full)
}

func TestPublisher_CancelledContextWhenFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()
	defer close(store.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var last error
	for range 5 {
		last = pub.Emit(ctx, audit.Event{Action: string(audit.EventPassScanned)})
		if last != nil {
			break
		}
	}
	assert.ErrorIs(t, last, context.Canceled)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventShowCreated)}))
	after := time.Now()

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action:    string(audit.EventShowCreated),
		Timestamp: customTime,
	}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "sync"},
		{name: "async", opts: []Option{WithAsyncBuffer(4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewInMemoryStore()
			pub := NewPublisher(store, tt.opts...)
			pub.Close()
			pub.Close()

			var err error
			require.NotPanics(t, func() {
				err = pub.Emit(context.Background(), audit.Event{Action: string(audit.EventPassPurchased), ShowID: 1})
			})
			assert.ErrorIs(t, err, ErrClosed)

			events, listErr := store.ListAll(context.Background())
			require.NoError(t, listErr)
			assert.Empty(t, events)
		})
	}
}

func TestPublisher_FinancialEventsWaitForSpace(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()
	defer close(store.release)

	var last error
	for range 5 {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		start := time.Now()
		last = pub.Emit(ctx, audit.Event{Action: string(audit.EventPassRefunded)})
		waited := time.Since(start)
		cancel()
		if last != nil {
			assert.GreaterOrEqual(t, waited, 40*time.Millisecond, "financial event should wait before giving up")
			break
		}
	}
	assert.ErrorIs(t, last, context.DeadlineExceeded)
	assert.NotErrorIs(t, last, ErrBufferFull)
}
