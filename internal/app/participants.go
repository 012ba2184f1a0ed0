package app

import (
	"time"

	"livequiz-service/internal/domain"
	"github.com/google/uuid"
)

// registry tracks every participant known to the session: identity,
// score, and per-question answer/lifeline records. It has no locking of
// its own; the owning Session's mutex is the single serialization point
// for all mutations.
type registry struct {
	byID    map[string]*participant
	byEmail map[string]string
	order   []*participant
}

type participant struct {
	id    string
	name  string
	email string // normalized

	score   int
	scoreAt time.Time // when the current score was reached
	joined  int       // registration order

	answers   map[int]*answerRecord
	lifelines map[int]map[domain.Lifeline]bool
}

// answerRecord is created on first submission and immutable thereafter.
type answerRecord struct {
	value       string
	submittedAt time.Time
	elapsed     time.Duration // active (unpaused) time before submission
	scored      bool
	correct     bool
	awarded     int
}

func newRegistry() *registry {
	return &registry{
		byID:    make(map[string]*participant),
		byEmail: make(map[string]string),
	}
}

// register creates a participant for the normalized email, or reuses the
// existing one so reconnects keep identity, score, and answer history.
func (r *registry) register(email, name string) (*participant, bool) {
	if id, ok := r.byEmail[email]; ok {
		p := r.byID[id]
		if name != "" {
			p.name = name
		}
		return p, true
	}
	p := &participant{
		id:        uuid.NewString(),
		name:      name,
		email:     email,
		joined:    len(r.order),
		answers:   make(map[int]*answerRecord),
		lifelines: make(map[int]map[domain.Lifeline]bool),
	}
	r.byID[p.id] = p
	r.byEmail[email] = p.id
	r.order = append(r.order, p)
	return p, false
}

func (r *registry) get(id string) (*participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// all returns participants in registration order.
func (r *registry) all() []*participant {
	return r.order
}

// resetProgress clears scores and per-question records while keeping
// identities, so a quiz can be re-run with the same audience.
func (r *registry) resetProgress() {
	for _, p := range r.order {
		p.score = 0
		p.scoreAt = time.Time{}
		p.answers = make(map[int]*answerRecord)
		p.lifelines = make(map[int]map[domain.Lifeline]bool)
	}
}

func (p *participant) view() domain.Participant {
	return domain.Participant{
		ID:          p.id,
		DisplayName: p.name,
		Code:        p.email,
		Score:       p.score,
	}
}

func (p *participant) lifelineUsed(index int, kind domain.Lifeline) bool {
	return p.lifelines[index][kind]
}

func (p *participant) markLifeline(index int, kind domain.Lifeline) {
	used, ok := p.lifelines[index]
	if !ok {
		used = make(map[domain.Lifeline]bool)
		p.lifelines[index] = used
	}
	used[kind] = true
}
