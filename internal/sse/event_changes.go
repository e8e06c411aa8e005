package sse

import (
	"context"
	"sync"

	"ms-gallery/internal/models"
)

const clientBuffer = 10

// ChangeEmitter fans EventChange notifications out to connected admin
// dashboards. Slow clients miss messages rather than block the emitter.
type ChangeEmitter struct {
	clients     map[chan models.EventChange]struct{}
	clientMutex sync.RWMutex
	closed      bool
}

func NewChangeEmitter() *ChangeEmitter {
	return &ChangeEmitter{
		clients: make(map[chan models.EventChange]struct{}),
	}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (e *ChangeEmitter) Subscribe(ctx context.Context) <-chan models.EventChange {
	clientChan := make(chan models.EventChange, clientBuffer)

	e.clientMutex.Lock()
	if e.closed {
		e.clientMutex.Unlock()
		close(clientChan)
		return clientChan
	}
	e.clients[clientChan] = struct{}{}
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(clientChan)
	}()

	return clientChan
}

func (e *ChangeEmitter) Emit(change models.EventChange) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for clientChan := range e.clients {
		select {
		case clientChan <- change:
		default:
			// buffer full
		}
	}
}

// EventChanged lets the emitter act as a workflow observer.
func (e *ChangeEmitter) EventChanged(_ context.Context, change models.EventChange) error {
	e.Emit(change)
	return nil
}

func (e *ChangeEmitter) remove(clientChan chan models.EventChange) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	if _, ok := e.clients[clientChan]; ok {
		delete(e.clients, clientChan)
		close(clientChan)
	}
}

func (e *ChangeEmitter) ClientCount() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients)
}

// Close ends every open stream. Later subscribers get a closed channel.
func (e *ChangeEmitter) Close() {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	e.closed = true
	for clientChan := range e.clients {
		delete(e.clients, clientChan)
		close(clientChan)
	}
}
