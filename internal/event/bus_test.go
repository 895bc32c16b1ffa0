package event

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.handlers == nil {
		t.Fatal("NewBus() handlers map not initialised")
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var received any
	bus.Subscribe("test", func(event any) {
		received = event
	})

	bus.Publish("test", "hello")

	if received != "hello" {
		t.Errorf("handler got %v, want %v", received, "hello")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish("nonexistent", "data")
}

func TestNilBusIsNoop(t *testing.T) {
	var bus *Bus
	bus.Subscribe("test", func(any) {})
	bus.Publish("test", "data")
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Subscribe("test", func(any) { order = append(order, i) })
	}

	bus.Publish("test", nil)

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("order = %v, want [0 1 2]", order)
	}
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe("test", func(any) { panic("boom") })
	bus.Subscribe("test", func(any) { called = true })

	bus.Publish("test", nil)

	if !called {
		t.Fatal("second handler not called after panic")
	}
}

func TestMultipleEvents(t *testing.T) {
	bus := NewBus()
	var switched, landed bool

	bus.Subscribe(EventControlSwitched, func(any) { switched = true })
	bus.Subscribe(EventLanded, func(any) { landed = true })

	bus.Publish(EventControlSwitched, ControlSwitchedEvent{From: "a", To: "b"})

	if !switched {
		t.Error("switch handler should be called")
	}
	if landed {
		t.Error("landed handler should not be called")
	}
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var count atomic.Int64
	bus.Subscribe("test", func(any) { count.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish("test", "data")
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe("test", func(any) { count.Add(1) })
		}()
	}
	wg.Wait()

	if count.Load() < 100 {
		t.Errorf("got %d deliveries, want at least 100", count.Load())
	}
}
