// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/miloira/line-web/lib/testutil"
)

func testDispatcher() *dispatcher {
	return newDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatchOrdering(t *testing.T) {
	d := testDispatcher()

	var mu sync.Mutex
	var order []string
	record := func(label string) Handler {
		return func(ctx context.Context, event Event) {
			mu.Lock()
			order = append(order, label)
			mu.Unlock()
		}
	}

	// Registered out of match order to prove the chain order comes from
	// specificity, not registration time.
	if err := d.register("message", "text", record("composite")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := d.register("message", "", record("bare")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := d.register("", "", record("wildcard")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	d.dispatch(context.Background(), Event{Name: "message", SubEvent: "text"})
	d.wait()

	want := []string{"wildcard", "bare", "composite"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestDispatchCompositeRequiresSubEvent(t *testing.T) {
	d := testDispatcher()

	called := make(chan struct{}, 1)
	if err := d.register("message", "text", func(ctx context.Context, event Event) {
		called <- struct{}{}
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Same event name, no sub-event: the composite handler must not run.
	d.dispatch(context.Background(), Event{Name: "message"})
	d.wait()
	select {
	case <-called:
		t.Fatal("composite handler ran without a sub-event")
	default:
	}

	d.dispatch(context.Background(), Event{Name: "message", SubEvent: "text"})
	d.wait()
	testutil.RequireReceive(t, called, time.Second, "composite handler")
}

func TestDispatchWildcardSeesEverything(t *testing.T) {
	d := testDispatcher()

	events := make(chan Event, 4)
	if err := d.register("", "", func(ctx context.Context, event Event) {
		events <- event
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, name := range []string{"message", "read", "ping"} {
		d.dispatch(context.Background(), Event{Name: name})
	}
	d.wait()

	// Distinct events run on separate goroutines, so arrival order is
	// not defined; assert the set.
	received := map[string]bool{}
	for range 3 {
		event := testutil.RequireReceive(t, events, time.Second, "wildcard event")
		received[event.Name] = true
	}
	for _, want := range []string{"message", "read", "ping"} {
		if !received[want] {
			t.Errorf("wildcard handler never saw %q (got %v)", want, received)
		}
	}
}

func TestRegisterSubEventWithoutEvent(t *testing.T) {
	d := testDispatcher()
	err := d.register("", "text", func(ctx context.Context, event Event) {})
	if !errors.Is(err, ErrSubEventWithoutEvent) {
		t.Fatalf("error = %v, want ErrSubEventWithoutEvent", err)
	}
}

func TestDispatchPanicIsolation(t *testing.T) {
	d := testDispatcher()

	survived := make(chan struct{}, 1)
	if err := d.register("message", "", func(ctx context.Context, event Event) {
		panic("handler bug")
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := d.register("message", "", func(ctx context.Context, event Event) {
		survived <- struct{}{}
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	d.dispatch(context.Background(), Event{Name: "message"})
	d.wait()

	// The panic in the first handler must not take down the second.
	testutil.RequireReceive(t, survived, time.Second, "handler after panic")
}

func TestDispatchNoHandlers(t *testing.T) {
	d := testDispatcher()
	// Must not block or panic.
	d.dispatch(context.Background(), Event{Name: "unhandled"})
	d.wait()
}
