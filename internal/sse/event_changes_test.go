package sse

import (
	"context"
	"testing"
	"time"

	"ms-gallery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesAllSubscribers(t *testing.T) {
	e := NewChangeEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := e.Subscribe(ctx)
	b := e.Subscribe(ctx)
	assert.Equal(t, 2, e.ClientCount())

	change := models.EventChange{EventID: "e1", Action: models.ActionCreated}
	require.NoError(t, e.EventChanged(ctx, change))

	for _, ch := range []<-chan models.EventChange{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, "e1", got.EventID)
		case <-time.After(time.Second):
			t.Fatal("change not delivered")
		}
	}
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	e := NewChangeEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx)
	for i := 0; i < clientBuffer*3; i++ {
		e.Emit(models.EventChange{EventID: "e"})
	}
	assert.Len(t, ch, clientBuffer)
}

func TestUnsubscribeOnContextDone(t *testing.T) {
	e := NewChangeEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return e.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCloseEndsStreams(t *testing.T) {
	e := NewChangeEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx)
	e.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, e.ClientCount())

	late := e.Subscribe(ctx)
	_, ok = <-late
	assert.False(t, ok)

	// the ctx watcher must not close the channel again
	cancel()
	time.Sleep(10 * time.Millisecond)
}
