package app

import (
	"sync"
	"time"

	"livequiz-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Session is the single live quiz run. It owns question sequencing,
// pause/resume, the per-question timer, reveal, lifeline configuration,
// and the participant registry. One mutex serializes every mutation so
// answer recording, reveal, and score application always observe a
// consistent snapshot; events are published to the hub after the lock
// is released.
type Session struct {
	mu    sync.Mutex
	clock clockwork.Clock
	hub   *Hub
	reg   *registry

	questions []domain.Question
	phase     domain.Phase
	index     int
	paused    bool
	revealed  bool
	lbVisible bool
	enabled   map[domain.Lifeline]bool

	startedAt   time.Time
	pausedAt    time.Time
	pausedAccum time.Duration

	// At most one live timer per session. timerGen invalidates callbacks
	// from superseded timers.
	timer    clockwork.Timer
	timerGen uint64
}

// NextResult reports what a Next call actually did: a first press on an
// unrevealed question reveals without advancing.
type NextResult struct {
	Revealed  bool `json:"revealed"`
	Advanced  bool `json:"advanced"`
	Completed bool `json:"completed"`
}

func NewSession(clock clockwork.Clock, hub *Hub) *Session {
	return &Session{
		clock: clock,
		hub:   hub,
		reg:   newRegistry(),
		phase: domain.PhaseIdle,
		enabled: map[domain.Lifeline]bool{
			domain.LifelineFiftyFifty: true,
			domain.LifelineHint:       true,
		},
	}
}

// Close cancels any outstanding timer. Used on server shutdown.
func (s *Session) Close() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.mu.Unlock()
}

// --- operator transitions ---

// ApplyQuestions installs a fresh question list and arms the session in
// Idle. Valid only while no quiz is running; participant records and
// scores are cleared because this begins a new session.
func (s *Session) ApplyQuestions(questions []domain.Question) error {
	s.mu.Lock()
	if s.phase == domain.PhaseInProgress {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.cancelTimerLocked()
	s.phase = domain.PhaseIdle
	s.index = 0
	s.paused = false
	s.revealed = false
	s.startedAt = time.Time{}
	s.pausedAt = time.Time{}
	s.pausedAccum = 0
	s.reg.resetProgress()
	evs := []Event{broadcast("status", s.statusLocked())}
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return nil
}

// Start begins the quiz at question 0 and arms its timer.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.phase != domain.PhaseIdle || len(s.questions) == 0 {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	s.phase = domain.PhaseInProgress
	s.index = 0
	s.beginQuestionLocked()
	evs := s.questionEventsLocked()
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return nil
}

// Next reveals the current question if it is not revealed yet, and
// advances otherwise. Advancing past the last question completes the
// session.
func (s *Session) Next() (NextResult, error) {
	s.mu.Lock()
	if s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return NextResult{}, domain.ErrInvalidState
	}

	var (
		res NextResult
		evs []Event
	)
	switch {
	case !s.revealed:
		evs = s.revealLocked()
		res = NextResult{Revealed: true}
	case s.index >= len(s.questions)-1:
		s.cancelTimerLocked()
		s.phase = domain.PhaseCompleted
		s.paused = false
		s.pausedAt = time.Time{}
		s.pausedAccum = 0
		evs = []Event{
			broadcast("complete", nil),
			broadcast("status", s.statusLocked()),
		}
		res = NextResult{Advanced: true, Completed: true}
	default:
		s.index++
		s.beginQuestionLocked()
		s.lbVisible = false
		evs = append([]Event{broadcast("leaderboardHide", nil)}, s.questionEventsLocked()...)
		res = NextResult{Advanced: true}
	}
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return res, nil
}

// TogglePause flips the paused flag. Pausing preserves the remaining
// time and suspends the auto-reveal timer; resuming rearms it with the
// preserved remainder.
func (s *Session) TogglePause() (bool, error) {
	s.mu.Lock()
	if s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return false, domain.ErrInvalidState
	}
	now := s.clock.Now()
	if !s.paused {
		s.paused = true
		s.pausedAt = now
		s.cancelTimerLocked()
	} else {
		s.paused = false
		if !s.pausedAt.IsZero() {
			s.pausedAccum += now.Sub(s.pausedAt)
		}
		s.pausedAt = time.Time{}
		if !s.revealed {
			s.armTimerLocked(s.remainingLocked())
		}
	}
	paused := s.paused
	evs := []Event{broadcast("status", s.statusLocked())}
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return paused, nil
}

// Reveal finalizes the current question exactly once: it stops the
// countdown, applies score deltas, and broadcasts the answer and
// leaderboard. A second call reports already=true and changes nothing.
func (s *Session) Reveal() (already bool, err error) {
	s.mu.Lock()
	if s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return false, domain.ErrInvalidState
	}
	if s.revealed {
		s.mu.Unlock()
		return true, nil
	}
	evs := s.revealLocked()
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return false, nil
}

// Reset clears all progress and scores and returns to Idle. The
// question list is preserved so a quiz can be re-run without
// re-uploading content.
func (s *Session) Reset() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.phase = domain.PhaseIdle
	s.index = 0
	s.paused = false
	s.revealed = false
	s.lbVisible = false
	s.startedAt = time.Time{}
	s.pausedAt = time.Time{}
	s.pausedAccum = 0
	s.reg.resetProgress()
	evs := []Event{
		broadcast("reset", nil),
		broadcast("status", s.statusLocked()),
	}
	s.mu.Unlock()

	s.hub.Publish(evs...)
}

// SetLifelines updates the enabled flags for known lifeline kinds and
// returns the resulting configuration.
func (s *Session) SetLifelines(flags map[domain.Lifeline]bool) map[domain.Lifeline]bool {
	s.mu.Lock()
	for _, kind := range domain.Lifelines {
		if v, ok := flags[kind]; ok {
			s.enabled[kind] = v
		}
	}
	current := s.lifelinesLocked()
	evs := []Event{broadcast("lifelines", current)}
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return current
}

// SetLeaderboardVisible toggles leaderboard broadcasting to participants.
func (s *Session) SetLeaderboardVisible(visible bool) {
	s.mu.Lock()
	s.lbVisible = visible
	var evs []Event
	if visible {
		evs = append(evs, broadcast("leaderboard", buildLeaderboard(s.reg.all(), s.clock.Now())))
	} else {
		evs = append(evs, broadcast("leaderboardHide", nil))
	}
	evs = append(evs, broadcast("status", s.statusLocked()))
	s.mu.Unlock()

	s.hub.Publish(evs...)
}

// Leaderboard computes a fresh ranked snapshot; it is never cached.
func (s *Session) Leaderboard() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildLeaderboard(s.reg.all(), s.clock.Now())
}

// Questions returns a copy of the active question list (with answers)
// for operator export.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Question(nil), s.questions...)
}

// --- participant operations ---

// Register adds a participant or reuses the one already bound to the
// normalized email, so reconnecting keeps identity and score.
func (s *Session) Register(email, name string) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, reused := s.reg.register(email, name)
	return p.view(), reused
}

// SubmitAnswer locks in an answer for the active question. The record
// is immutable once created; repeats are rejected, as are submissions
// while paused, after reveal, after the deadline, or for a question
// that is not the current one.
func (s *Session) SubmitAnswer(participantID, questionID, value string) error {
	s.mu.Lock()
	p, ok := s.reg.get(participantID)
	if !ok {
		s.mu.Unlock()
		return domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	q := s.questions[s.index]
	if q.ID != questionID || s.paused || s.revealed {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	if s.remainingLocked() <= 0 {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	if _, answered := p.answers[s.index]; answered {
		s.mu.Unlock()
		return domain.ErrAlreadyAnswered
	}
	p.answers[s.index] = &answerRecord{
		value:       value,
		submittedAt: s.clock.Now(),
		elapsed:     s.activeElapsedLocked(),
	}
	evs := []Event{
		toOperators("answerSubmitted", AnswerSubmittedEvent{
			ParticipantID: p.id,
			DisplayName:   p.name,
			QuestionID:    q.ID,
		}),
		toParticipant(p.id, "answerLocked", domain.AnswerReceipt{QuestionID: q.ID, Locked: true}),
	}
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return nil
}

// UseLifeline consumes a lifeline for the current question. The 50-50
// effect never mutates the shared question; it only sends the asking
// participant a reduced view.
func (s *Session) UseLifeline(participantID string, kind domain.Lifeline) error {
	s.mu.Lock()
	p, ok := s.reg.get(participantID)
	if !ok {
		s.mu.Unlock()
		return domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhaseInProgress || s.revealed {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	if !s.knownLifeline(kind) || !s.enabled[kind] {
		s.mu.Unlock()
		return domain.ErrLifelineDisabled
	}
	q := s.questions[s.index]
	if kind == domain.LifelineFiftyFifty && len(q.Choices) == 0 {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	if p.lifelineUsed(s.index, kind) {
		s.mu.Unlock()
		return domain.ErrLifelineUsed
	}
	p.markLifeline(s.index, kind)

	evs := []Event{
		toOperators("lifelineUsed", LifelineUsedEvent{ParticipantID: p.id, DisplayName: p.name, Kind: kind}),
	}
	switch kind {
	case domain.LifelineFiftyFifty:
		evs = append(evs, toParticipant(p.id, "fiftyFifty", FiftyFiftyEvent{
			QuestionID: q.ID,
			KeepIDs:    fiftyFiftyKeep(q),
		}))
	case domain.LifelineHint:
		evs = append(evs, toParticipant(p.id, "hint", HintEvent{QuestionID: q.ID, Hint: q.Hint}))
	}
	evs = append(evs, toParticipant(p.id, "lifelineStatus", LifelineStatusEvent{
		Available: s.availableLocked(p),
	}))
	s.mu.Unlock()

	s.hub.Publish(evs...)
	return nil
}

// Snapshot reconstructs the full current state for a (re)connecting
// client, independent of the event stream.
func (s *Session) Snapshot(participantID string, operator bool) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.Snapshot{
		Status:    s.statusLocked(),
		Lifelines: s.lifelinesLocked(),
	}
	if s.phase == domain.PhaseInProgress {
		view := s.questions[s.index].View()
		snap.Question = &view
	}
	if operator || s.lbVisible {
		lb := buildLeaderboard(s.reg.all(), s.clock.Now())
		snap.Leaderboard = &lb
	}
	if p, ok := s.reg.get(participantID); ok {
		_, answered := p.answers[s.index]
		snap.Participant = &domain.ParticipantSnapshot{
			Participant: p.view(),
			Answered:    s.phase == domain.PhaseInProgress && answered,
			Available:   s.availableLocked(p),
		}
	}
	return snap
}

// --- internals (locked) ---

// beginQuestionLocked resets per-question state and arms the timer for
// the question at the current index.
func (s *Session) beginQuestionLocked() {
	s.revealed = false
	s.paused = false
	s.pausedAt = time.Time{}
	s.pausedAccum = 0
	s.startedAt = s.clock.Now()
	s.armTimerLocked(time.Duration(s.questions[s.index].Duration) * time.Second)
}

func (s *Session) questionEventsLocked() []Event {
	q := s.questions[s.index]
	return []Event{
		broadcast("question", QuestionEvent{
			Question:  q.View(),
			Index:     s.index,
			Remaining: s.remainingLocked().Seconds(),
		}),
		broadcast("status", s.statusLocked()),
	}
}

// revealLocked finalizes the current question. Callers must have
// checked phase == InProgress and revealed == false.
func (s *Session) revealLocked() []Event {
	s.revealed = true
	s.cancelTimerLocked()

	q := s.questions[s.index]
	evs := []Event{broadcast("reveal", RevealEvent{QuestionID: q.ID, CorrectAnswer: q.Answer})}

	for _, p := range s.reg.all() {
		rec, ok := p.answers[s.index]
		if !ok || rec.scored {
			continue
		}
		rec.scored = true
		rec.correct = isCorrect(q, rec.value)
		if rec.correct {
			rec.awarded = awardFor(rec.elapsed, q.Duration)
			p.score += rec.awarded
			p.scoreAt = rec.submittedAt
		}
		evs = append(evs, toParticipant(p.id, "answerResult", domain.AnswerResult{
			QuestionID: q.ID,
			Correct:    rec.correct,
			Awarded:    rec.awarded,
			TotalScore: p.score,
		}))
	}

	lb := buildLeaderboard(s.reg.all(), s.clock.Now())
	if s.lbVisible {
		evs = append(evs, broadcast("leaderboard", lb))
	} else {
		evs = append(evs, toOperators("leaderboard", lb))
	}
	evs = append(evs, broadcast("status", s.statusLocked()))
	return evs
}

func (s *Session) statusLocked() domain.Status {
	st := domain.Status{
		Phase:              s.phase,
		Index:              s.index,
		Total:              len(s.questions),
		Paused:             s.paused,
		Revealed:           s.revealed,
		ServerTime:         s.clock.Now().Unix(),
		LeaderboardVisible: s.lbVisible,
	}
	if s.phase == domain.PhaseInProgress {
		st.Duration = s.questions[s.index].Duration
		st.Remaining = s.remainingLocked().Seconds()
	}
	return st
}

func (s *Session) lifelinesLocked() map[domain.Lifeline]bool {
	out := make(map[domain.Lifeline]bool, len(s.enabled))
	for k, v := range s.enabled {
		out[k] = v
	}
	return out
}

func (s *Session) availableLocked(p *participant) map[domain.Lifeline]bool {
	out := make(map[domain.Lifeline]bool, len(domain.Lifelines))
	for _, kind := range domain.Lifelines {
		out[kind] = s.enabled[kind] && !p.lifelineUsed(s.index, kind)
	}
	return out
}

func (s *Session) knownLifeline(kind domain.Lifeline) bool {
	for _, k := range domain.Lifelines {
		if k == kind {
			return true
		}
	}
	return false
}

// activeElapsedLocked is wall time since the question started minus all
// paused time, including an in-flight pause.
func (s *Session) activeElapsedLocked() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	now := s.clock.Now()
	pausedTotal := s.pausedAccum
	if s.paused && !s.pausedAt.IsZero() {
		pausedTotal += now.Sub(s.pausedAt)
	}
	elapsed := now.Sub(s.startedAt) - pausedTotal
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

func (s *Session) remainingLocked() time.Duration {
	if s.phase != domain.PhaseInProgress || s.revealed {
		return 0
	}
	total := time.Duration(s.questions[s.index].Duration) * time.Second
	remaining := total - s.activeElapsedLocked()
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (s *Session) armTimerLocked(d time.Duration) {
	s.timerGen++
	gen := s.timerGen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(d, func() { s.timerFired(gen) })
}

func (s *Session) cancelTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// timerFired handles countdown expiry. A stale generation means the
// timer was superseded by pause, reveal, advance, or reset.
func (s *Session) timerFired(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.phase != domain.PhaseInProgress || s.paused || s.revealed {
		s.mu.Unlock()
		return
	}
	log.Debug().Int("index", s.index).Msg("question timer expired, revealing")
	evs := s.revealLocked()
	s.mu.Unlock()

	s.hub.Publish(evs...)
}

// fiftyFiftyKeep returns the choice ids that remain visible after the
// 50-50 lifeline: the correct choice plus the first incorrect choice in
// declared order.
func fiftyFiftyKeep(q domain.Question) []string {
	keep := []string{q.Answer}
	for _, c := range q.Choices {
		if c.ID != q.Answer {
			keep = append(keep, c.ID)
			break
		}
	}
	return keep
}
