package gallery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu       sync.Mutex
	listings map[string][]StorageObject
	failures map[string]error
	delays   map[string]time.Duration
	calls    []string
}

func (f *fakeLister) List(ctx context.Context, prefix string) ([]StorageObject, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prefix)
	delay := f.delays[prefix]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.failures[prefix]; err != nil {
		return nil, err
	}
	return f.listings[prefix], nil
}

func objects(names ...string) []StorageObject {
	out := make([]StorageObject, 0, len(names))
	for _, n := range names {
		out = append(out, StorageObject{Name: n})
	}
	return out
}

func names(images []models.ArtistImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Artist+"/"+img.Name)
	}
	return out
}

func newTestAggregator(l Lister) *Aggregator {
	return NewAggregator(l, Options{
		PublicBaseURL: "https://store.example/",
		Bucket:        "artists-public",
		Concurrency:   4,
	}, logger.Discard())
}

func TestListImagesOneArtistFails(t *testing.T) {
	lister := &fakeLister{
		listings: map[string][]StorageObject{
			"":          objects(".emptyFolderPlaceholder", "alice", "bob", "carol"),
			"alice/art": objects("a1.jpg", "a2.PNG", "notes.txt"),
			"carol/art": objects("c1.jpeg", "c2.gif", "c3.png"),
		},
		failures: map[string]error{
			"bob/art": errors.New("permission denied"),
		},
	}

	feed := newTestAggregator(lister).ListImages(context.Background(), "")

	assert.Equal(t, []string{"alice/a1.jpg", "alice/a2.PNG", "carol/c1.jpeg", "carol/c3.png"}, names(feed.Images))
	assert.True(t, feed.Partial)
	require.Len(t, feed.Failures, 1)
	assert.Equal(t, "bob", feed.Failures[0].Artist)
	assert.Contains(t, feed.Failures[0].Reason, "permission denied")
	assert.NotContains(t, lister.calls, ".emptyFolderPlaceholder/art")
}

func TestListImagesURLs(t *testing.T) {
	lister := &fakeLister{listings: map[string][]StorageObject{
		"":             objects("jane doe"),
		"jane doe/art": objects("sunrise.jpg"),
	}}
	agg := newTestAggregator(lister)

	feed := agg.ListImages(context.Background(), "")
	require.Len(t, feed.Images, 1)
	assert.Equal(t, "https://store.example/storage/v1/object/public/artists-public/jane%20doe/art/sunrise.jpg", feed.Images[0].URL)
	assert.Equal(t, "sunrise.jpg", feed.Images[0].Name)
	assert.Nil(t, feed.Images[0].Width)
	assert.False(t, feed.Partial)
}

func TestListImagesSingleArtistSkipsTopLevel(t *testing.T) {
	lister := &fakeLister{listings: map[string][]StorageObject{
		"alice/art": objects("a1.jpg"),
	}}

	feed := newTestAggregator(lister).ListImages(context.Background(), "alice")
	assert.Equal(t, []string{"alice/a1.jpg"}, names(feed.Images))
	assert.Equal(t, []string{"alice/art"}, lister.calls)
}

func TestListImagesSingleArtistFailure(t *testing.T) {
	lister := &fakeLister{failures: map[string]error{"alice/art": errors.New("boom")}}

	feed := newTestAggregator(lister).ListImages(context.Background(), "alice")
	assert.Empty(t, feed.Images)
	assert.NotNil(t, feed.Images)
	assert.True(t, feed.Partial)
	assert.Equal(t, "alice", feed.Failures[0].Artist)
}

func TestListImagesTopLevelFailure(t *testing.T) {
	lister := &fakeLister{failures: map[string]error{"": errors.New("bucket missing")}}

	feed := newTestAggregator(lister).ListImages(context.Background(), "")
	assert.Empty(t, feed.Images)
	require.Len(t, feed.Failures, 1)
	assert.Equal(t, "", feed.Failures[0].Artist)
	assert.True(t, feed.Partial)
}

func TestListImagesEmptyBucket(t *testing.T) {
	feed := newTestAggregator(&fakeLister{}).ListImages(context.Background(), "")
	assert.NotNil(t, feed.Images)
	assert.Empty(t, feed.Images)
	assert.False(t, feed.Partial)
}

func TestListImagesKeepsArtistOrderUnderConcurrency(t *testing.T) {
	lister := &fakeLister{
		listings: map[string][]StorageObject{
			"":      objects("a", "b", "c"),
			"a/art": objects("1.jpg"),
			"b/art": objects("1.jpg"),
			"c/art": objects("1.jpg"),
		},
		delays: map[string]time.Duration{"a/art": 30 * time.Millisecond},
	}

	feed := newTestAggregator(lister).ListImages(context.Background(), "")
	assert.Equal(t, []string{"a/1.jpg", "b/1.jpg", "c/1.jpg"}, names(feed.Images))
}

func TestListImagesArtistTimeout(t *testing.T) {
	lister := &fakeLister{
		listings: map[string][]StorageObject{
			"":         objects("slow", "fast"),
			"slow/art": objects("s.jpg"),
			"fast/art": objects("f.jpg"),
		},
		delays: map[string]time.Duration{"slow/art": time.Second},
	}
	agg := NewAggregator(lister, Options{Bucket: "artists-public", Concurrency: 2, ArtistTimeout: 20 * time.Millisecond}, logger.Discard())

	feed := agg.ListImages(context.Background(), "")
	assert.Equal(t, []string{"fast/f.jpg"}, names(feed.Images))
	require.Len(t, feed.Failures, 1)
	assert.Equal(t, "slow", feed.Failures[0].Artist)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("a.JPG"))
	assert.True(t, IsImage("a.jpeg"))
	assert.True(t, IsImage("a.Png"))
	assert.False(t, IsImage("a.gif"))
	assert.False(t, IsImage("jpg"))
	assert.False(t, IsImage(".emptyFolderPlaceholder"))
}
