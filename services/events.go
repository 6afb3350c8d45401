package services

import (
	"context"
	"log"
	"sync"
)

// Event names the domain events the adapter reacts to. The host
// application (or the decision endpoint standing in for it) fires these;
// handlers are registered once at startup.
type Event string

const (
	EventArticleAccepted    Event = "article.accepted"
	EventArticleDeclined    Event = "article.declined"
	EventArticleUndeclined  Event = "article.undeclined"
	EventRevisionsRequested Event = "revisions.requested"
	EventReviewerAccepted   Event = "reviewer.accepted"
)

// EventPayload carries the identifiers a handler may need. Fields not
// applicable to an event stay zero.
type EventPayload struct {
	ArticleID          int
	ReviewAssignmentID uint
}

// EventHandler reacts to one fired event. Handlers run synchronously in
// registration order; a handler error is logged, not propagated, so one
// failing observer cannot veto the triggering action.
type EventHandler func(ctx context.Context, payload EventPayload) error

// EventRegistry is a minimal named-event observer registry, decoupled from
// any web framework's signal system.
type EventRegistry struct {
	mu       sync.RWMutex
	handlers map[Event][]EventHandler
}

// NewEventRegistry constructs an empty registry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{handlers: make(map[Event][]EventHandler)}
}

// Register adds a handler for the event.
func (r *EventRegistry) Register(event Event, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = append(r.handlers[event], handler)
}

// Fire invokes all handlers registered for the event.
func (r *EventRegistry) Fire(ctx context.Context, event Event, payload EventPayload) {
	r.mu.RLock()
	handlers := r.handlers[event]
	r.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, payload); err != nil {
			log.Printf("event %s handler failed: %v", event, err)
		}
	}
}
