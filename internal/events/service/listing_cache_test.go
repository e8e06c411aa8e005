package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ms-gallery/internal/cache"
	events "ms-gallery/internal/events/service"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pausingStore holds the first published listing read until released.
type pausingStore struct {
	events.EventStore
	once    sync.Once
	reading chan struct{}
	release chan struct{}
}

func (s *pausingStore) ListByStatus(ctx context.Context, status string) ([]models.Event, error) {
	list, err := s.EventStore.ListByStatus(ctx, status)
	s.once.Do(func() {
		close(s.reading)
		<-s.release
	})
	return list, err
}

func TestPublishDuringListingReadIsNotMaskedByCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.Discard()
	listingCache := cache.NewListingCache(client, 10*time.Minute, log)
	store := &pausingStore{
		EventStore: sqliteStore(t),
		reading:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	api := newFakeTicketingAPI(t)

	svc := events.NewEventService(store, api.client(), log, listingCache)
	svc.Cache = listingCache
	ctx := adminCtx()

	created, err := svc.CreateEvent(ctx, openingNight())
	require.NoError(t, err)

	type result struct {
		list []models.Event
		err  error
	}
	done := make(chan result, 1)
	go func() {
		list, err := svc.ListPublishedEvents(context.Background())
		done <- result{list, err}
	}()

	select {
	case <-store.reading:
	case <-time.After(5 * time.Second):
		t.Fatal("listing read never reached the store")
	}

	_, err = svc.PublishEvent(ctx, created.ID)
	require.NoError(t, err)
	close(store.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Empty(t, first.list)

	// the read that overlapped the publish must not be cached
	assert.False(t, mr.Exists(cache.PublishedEventsKey))

	next, err := svc.ListPublishedEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, created.ID, next[0].ID)
}
