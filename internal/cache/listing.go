package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	PublishedEventsKey = "events:published"
	// GenerationKey is bumped by every invalidation. A listing read from the
	// store is only cached if the generation has not moved since the read began.
	GenerationKey = "events:published:gen"
)

var errStaleListing = errors.New("listing generation changed")

// ListingCache holds the public events listing. Every successful event
// mutation invalidates it.
type ListingCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	return &ListingCache{Client: client, TTL: ttl, Logger: log}
}

// Get reports a miss as (nil, false, nil).
func (c *ListingCache) Get(ctx context.Context) ([]models.Event, bool, error) {
	data, err := c.Client.Get(ctx, PublishedEventsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read listing cache: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		// unreadable entry, treat as a miss
		c.Logger.Warn("CACHE", fmt.Sprintf("Discarding corrupt listing cache entry: %v", err))
		_ = c.Client.Del(ctx, PublishedEventsKey).Err()
		return nil, false, nil
	}
	return events, true, nil
}

// Generation returns the current invalidation generation, 0 before the first
// invalidation.
func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.Client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read listing generation: %w", err)
	}
	return generation, nil
}

// Set caches events read while the cache was at generation. If an
// invalidation happened since, the write is dropped.
func (c *ListingCache) Set(ctx context.Context, generation int64, events []models.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode listing cache: %w", err)
	}

	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, PublishedEventsKey, data, c.TTL)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case errors.Is(err, errStaleListing), errors.Is(err, redis.TxFailedErr):
		c.Logger.Debug("CACHE", fmt.Sprintf("Listing from generation %d is stale, not cached", generation))
		return nil
	case err != nil:
		return fmt.Errorf("write listing cache: %w", err)
	}
	return nil
}

func (c *ListingCache) Invalidate(ctx context.Context) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, PublishedEventsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate listing cache: %w", err)
	}
	return nil
}

// EventChanged drops the cached listing after any mutation.
func (c *ListingCache) EventChanged(ctx context.Context, change models.EventChange) error {
	if err := c.Invalidate(ctx); err != nil {
		return err
	}
	c.Logger.Debug("CACHE", fmt.Sprintf("Listing invalidated after %s of %s", change.Action, change.EventID))
	return nil
}
