package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Scope selects which connections receive an event.
type Scope int

const (
	// ScopeAll delivers to every connected participant and operator.
	ScopeAll Scope = iota
	// ScopeOperators delivers to operator connections only.
	ScopeOperators
	// ScopeParticipant delivers to a single participant's connection.
	ScopeParticipant
)

// Event is one outbound state-change notification. Scope and
// ParticipantID address the event; only Type and Payload go on the wire.
type Event struct {
	Type          string `json:"type"`
	Payload       any    `json:"payload,omitempty"`
	Scope         Scope  `json:"-"`
	ParticipantID string `json:"-"`
}

func broadcast(typ string, payload any) Event {
	return Event{Type: typ, Payload: payload, Scope: ScopeAll}
}

func toOperators(typ string, payload any) Event {
	return Event{Type: typ, Payload: payload, Scope: ScopeOperators}
}

func toParticipant(participantID, typ string, payload any) Event {
	return Event{Type: typ, Payload: payload, Scope: ScopeParticipant, ParticipantID: participantID}
}

const (
	subscriberBuffer = 16
	recentLimit      = 64
)

// Subscriber is one connection's view of the event stream.
type Subscriber struct {
	ch            chan Event
	operator      bool
	participantID string
}

// Events returns the channel the connection should drain.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub fans accepted state transitions out to all current connections.
// Delivery is best-effort per connection: a slow subscriber loses its
// oldest pending event rather than blocking the others. The hub also
// keeps a short ring of recent non-targeted events for the operator.
type Hub struct {
	mu            sync.Mutex
	subs          map[*Subscriber]struct{}
	byParticipant map[string]*Subscriber
	recent        []Event
}

func NewHub() *Hub {
	return &Hub{
		subs:          make(map[*Subscriber]struct{}),
		byParticipant: make(map[string]*Subscriber),
	}
}

// Subscribe registers a connection. A participant may hold at most one
// live subscription: a new one replaces the old, which receives a
// "replaced" event before its channel closes. The caller must invoke
// the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(participantID string, operator bool) (*Subscriber, func()) {
	sub := &Subscriber{
		ch:            make(chan Event, subscriberBuffer),
		operator:      operator,
		participantID: participantID,
	}

	h.mu.Lock()
	if participantID != "" {
		if prev, ok := h.byParticipant[participantID]; ok {
			h.deliverLocked(prev, Event{Type: "replaced", Payload: ReplacedEvent{Reason: "another connection registered for this participant"}})
			h.dropLocked(prev)
		}
		h.byParticipant[participantID] = sub
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		h.dropLocked(sub)
		h.mu.Unlock()
	}
	return sub, cancel
}

func (h *Hub) dropLocked(sub *Subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	if sub.participantID != "" && h.byParticipant[sub.participantID] == sub {
		delete(h.byParticipant, sub.participantID)
	}
	close(sub.ch)
}

// Publish delivers events to every subscriber in the addressed audience.
func (h *Hub) Publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		if ev.Scope != ScopeParticipant {
			h.rememberLocked(ev)
		}
		switch ev.Scope {
		case ScopeParticipant:
			if sub, ok := h.byParticipant[ev.ParticipantID]; ok {
				h.deliverLocked(sub, ev)
			}
		case ScopeOperators:
			for sub := range h.subs {
				if sub.operator {
					h.deliverLocked(sub, ev)
				}
			}
		default:
			for sub := range h.subs {
				h.deliverLocked(sub, ev)
			}
		}
	}
}

func (h *Hub) deliverLocked(sub *Subscriber, ev Event) {
	select {
	case sub.ch <- ev:
	default:
		// Slow connection: shed its oldest pending event so this one fits.
		select {
		case dropped := <-sub.ch:
			log.Warn().Str("event", dropped.Type).Str("participant", sub.participantID).Msg("dropped event for slow subscriber")
		default:
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (h *Hub) rememberLocked(ev Event) {
	h.recent = append(h.recent, ev)
	if len(h.recent) > recentLimit {
		h.recent = h.recent[len(h.recent)-recentLimit:]
	}
}

// Recent returns the retained tail of non-targeted events, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.recent))
	copy(out, h.recent)
	return out
}
