// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"log/slog"
	"sync"
)

// Handler reacts to one streamed event. Handlers run off the stream
// read loop; a slow handler delays later handlers for the same event
// but never the stream itself.
type Handler func(ctx context.Context, event Event)

// matchAllKey is the reserved registry key for handlers that receive
// every event. It cannot collide with a real event name: the wire
// format never produces an empty name, and registration maps the
// empty-name case here explicitly.
const matchAllKey = ""

// dispatcher is a name-keyed handler registry with wildcard and
// two-level (event, sub-event) matching. The key space is finite and
// resolved at registration time: the bare event name, the
// "event-subEvent" composite, or the match-everything key.
//
// Registration happens during setup before the stream starts; dispatch
// reads the registry concurrently afterwards. The mutex makes the
// hand-off safe rather than enabling mid-stream registration.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	return &dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// register adds a handler under the key composed from event and
// subEvent per the rules on Bot.Handle.
func (d *dispatcher) register(event, subEvent string, handler Handler) error {
	if event == "" && subEvent != "" {
		return ErrSubEventWithoutEvent
	}

	key := matchAllKey
	switch {
	case event != "" && subEvent != "":
		key = event + "-" + subEvent
	case event != "":
		key = event
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[key] = append(d.handlers[key], handler)
	return nil
}

// dispatch routes one event: match-everything handlers first, then
// bare-name handlers, then composite handlers when the payload carries
// a sub-event. The chain runs in order on one goroutine per event, so
// ordering within a dispatch is guaranteed; handlers for different
// events may overlap.
//
// A handler panic is recovered and logged. It skips that handler's
// remaining work only; later handlers in the chain and the read loop
// are unaffected.
func (d *dispatcher) dispatch(ctx context.Context, event Event) {
	d.mu.RLock()
	chain := make([]Handler, 0,
		len(d.handlers[matchAllKey])+len(d.handlers[event.Name])+4)
	chain = append(chain, d.handlers[matchAllKey]...)
	chain = append(chain, d.handlers[event.Name]...)
	if event.SubEvent != "" {
		chain = append(chain, d.handlers[event.Name+"-"+event.SubEvent]...)
	}
	d.mu.RUnlock()

	if len(chain) == 0 {
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		for _, handler := range chain {
			d.invoke(ctx, handler, event)
		}
	}()
}

// invoke runs one handler with panic isolation.
func (d *dispatcher) invoke(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				"event", event.Name,
				"sub_event", event.SubEvent,
				"event_id", event.ID,
				"panic", r,
			)
		}
	}()
	handler(ctx, event)
}

// wait blocks until all in-flight handler chains finish. The streaming
// engine drains before returning from Run so cancellation does not
// orphan running handlers.
func (d *dispatcher) wait() {
	d.inflight.Wait()
}

// Handle registers a handler for streamed events:
//
//   - Handle("", "", h): h receives every event.
//   - Handle("message", "", h): h receives events named "message".
//   - Handle("fail", "invalid_token", h): h receives "fail" events
//     whose payload subEvent is "invalid_token".
//
// Registering a sub-event without an event is a configuration error.
// Register all handlers before calling Run; the registry is read-only
// while streaming.
func (b *Bot) Handle(event, subEvent string, handler Handler) error {
	return b.dispatcher.register(event, subEvent, handler)
}
