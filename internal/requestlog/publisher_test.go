package requestlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwatch/internal/requestlog"
	"domainwatch/internal/requestlog/store/memory"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pub := requestlog.NewPublisher(store, requestlog.WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	err := pub.Emit(context.Background(), requestlog.Entry{
		Domain:    "example.com",
		Method:    "GET",
		Status:    requestlog.StatusOnAnalysis,
		UserAgent: chromeUA,
	})
	require.NoError(t, err)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, requestlog.StatusOnAnalysis, entries[0].Status)
	assert.Equal(t, "Chrome 120 / Windows 10", entries[0].Client)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := requestlog.NewPublisher(store, requestlog.WithAsyncBuffer(10))

	for _, status := range []requestlog.Status{requestlog.StatusInvalid, requestlog.StatusReady} {
		require.NoError(t, pub.Emit(context.Background(), requestlog.Entry{Domain: "a.com", Status: status}))
	}
	pub.Close()

	entries, err := store.ListByDomain(context.Background(), "a.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, requestlog.StatusInvalid, entries[0].Status)
	assert.Equal(t, requestlog.StatusReady, entries[1].Status)
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := requestlog.NewPublisher(memory.NewInMemoryStore())
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), requestlog.Entry{Domain: "a.com"})
	assert.ErrorIs(t, err, requestlog.ErrPublisherClosed)
}

type failingStore struct{}

func (failingStore) Append(context.Context, requestlog.Entry) error {
	return errors.New("database unavailable")
}

func TestPublisher_StoreFailureIsReported(t *testing.T) {
	pub := requestlog.NewPublisher(failingStore{})
	defer pub.Close()

	err := pub.Emit(context.Background(), requestlog.Entry{Domain: "a.com"})
	assert.ErrorContains(t, err, "database unavailable")
}

func TestPublisher_ConcurrentEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := requestlog.NewPublisher(store, requestlog.WithAsyncBuffer(1000))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), requestlog.Entry{Domain: "busy.com", Status: requestlog.StatusOnAnalysis})
		}()
	}
	wg.Wait()
	pub.Close()

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 100)
}
