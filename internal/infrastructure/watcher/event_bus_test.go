package watcher

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cocursor/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirtyEvent() *events.FileSystemEvent {
	return &events.FileSystemEvent{
		EventType: events.FileDirty,
		FilePath:  "/workspace/module/src/main.go",
		EventTime: time.Now(),
	}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var received atomic.Bool

	unsub := bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		received.Store(true)
		return nil
	}))
	defer unsub()

	bus.Publish(dirtyEvent())

	time.Sleep(100 * time.Millisecond)

	assert.True(t, received.Load(), "handler should have received the event")
}

func TestEventBus_MultipleHandlers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var count atomic.Int32

	for i := 0; i < 3; i++ {
		unsub := bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
			count.Add(1)
			return nil
		}))
		defer unsub()
	}

	bus.Publish(dirtyEvent())

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(3), count.Load(), "all 3 handlers should have received the event")
}

func TestEventBus_SubscribeMultiple(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var count atomic.Int32

	unsub := bus.SubscribeMultiple(
		[]events.EventType{events.FileDirty, events.FileDeleted},
		events.HandlerFunc(func(event events.Event) error {
			count.Add(1)
			return nil
		}),
	)
	defer unsub()

	bus.Publish(dirtyEvent())
	bus.Publish(&events.FileSystemEvent{
		EventType: events.FileDeleted,
		FilePath:  "/workspace/module/src/old.go",
		EventTime: time.Now(),
	})

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(2), count.Load(), "handler should have received both events")
}

func TestEventBus_ErrorIsolation(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var successCount atomic.Int32

	bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		return errors.New("handler error")
	}))

	bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		successCount.Add(1)
		return nil
	}))

	bus.Publish(dirtyEvent())

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), successCount.Load(), "second handler should still receive the event")
}

func TestEventBus_PanicRecovery(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var successCount atomic.Int32

	bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		panic("handler panic")
	}))

	bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		successCount.Add(1)
		return nil
	}))

	require.NotPanics(t, func() {
		bus.Publish(dirtyEvent())
	})

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), successCount.Load(), "second handler should still receive the event")
}

func TestEventBus_NoHandlers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	require.NotPanics(t, func() {
		bus.Publish(dirtyEvent())
	})
}

func TestEventBus_CloseWaitsForHandlers(t *testing.T) {
	bus := NewEventBus().(*eventBusImpl)

	var wg sync.WaitGroup
	wg.Add(1)

	handlerStarted := make(chan struct{})
	handlerDone := make(chan struct{})

	bus.Subscribe(events.FileDirty, events.HandlerFunc(func(event events.Event) error {
		close(handlerStarted)
		time.Sleep(200 * time.Millisecond)
		close(handlerDone)
		return nil
	}))

	bus.Publish(dirtyEvent())

	<-handlerStarted

	go func() {
		bus.Close()
		wg.Done()
	}()

	select {
	case <-handlerDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler should have completed")
	}

	wg.Wait()
}
