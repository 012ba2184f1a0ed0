package app

import (
	"context"
	"fmt"

	"livequiz-service/internal/domain"
)

// QuestionSetStore abstracts named question-set persistence
// (file directory, Postgres, cached variants).
type QuestionSetStore interface {
	Save(ctx context.Context, name string, questions []domain.Question) error
	Load(ctx context.Context, name string) ([]domain.Question, error)
	List(ctx context.Context) ([]domain.SetInfo, error)
	Delete(ctx context.Context, name string) error
}

// AllowList gates registration by normalized email. An empty list means
// open registration.
type AllowList interface {
	Replace(ctx context.Context, emails []string) error
	Append(ctx context.Context, emails []string) error
	Remove(ctx context.Context, emails []string) error
	Emails(ctx context.Context) ([]string, error)
	IsAllowed(ctx context.Context, email string) (bool, error)
}

// Service ties the session state machine to the question-set store and
// the allow-list, and is the single entry point for transports.
type Service struct {
	session *Session
	hub     *Hub
	sets    QuestionSetStore
	allow   AllowList
}

func NewService(session *Session, hub *Hub, sets QuestionSetStore, allow AllowList) *Service {
	return &Service{session: session, hub: hub, sets: sets, allow: allow}
}

// Hub exposes the fan-out for transports to subscribe connections.
func (s *Service) Hub() *Hub {
	return s.hub
}

// RecentEvents returns the operator-facing tail of broadcast events.
func (s *Service) RecentEvents() []Event {
	return s.hub.Recent()
}

// --- participant actions ---

// Register gates the identity through the allow-list and adds (or
// reuses) the participant.
func (s *Service) Register(ctx context.Context, email, displayName string) (domain.Participant, error) {
	norm := domain.NormalizeEmail(email)
	if norm == "" {
		return domain.Participant{}, &domain.ValidationError{Detail: "email required"}
	}
	allowed, err := s.allow.IsAllowed(ctx, norm)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("check allow-list: %w", err)
	}
	if !allowed {
		return domain.Participant{}, domain.ErrNotAllowed
	}
	p, _ := s.session.Register(norm, displayName)
	return p, nil
}

func (s *Service) SubmitAnswer(participantID, questionID, value string) error {
	return s.session.SubmitAnswer(participantID, questionID, value)
}

func (s *Service) UseLifeline(participantID string, kind domain.Lifeline) error {
	return s.session.UseLifeline(participantID, kind)
}

func (s *Service) Snapshot(participantID string, operator bool) domain.Snapshot {
	return s.session.Snapshot(participantID, operator)
}

// --- operator pacing ---

func (s *Service) Start() error                   { return s.session.Start() }
func (s *Service) Next() (NextResult, error)      { return s.session.Next() }
func (s *Service) TogglePause() (bool, error)     { return s.session.TogglePause() }
func (s *Service) Reveal() (bool, error)          { return s.session.Reveal() }
func (s *Service) Reset()                         { s.session.Reset() }
func (s *Service) Leaderboard() domain.Leaderboard { return s.session.Leaderboard() }

func (s *Service) SetLifelines(flags map[domain.Lifeline]bool) map[domain.Lifeline]bool {
	return s.session.SetLifelines(flags)
}

func (s *Service) ShowLeaderboard() { s.session.SetLeaderboardVisible(true) }
func (s *Service) HideLeaderboard() { s.session.SetLeaderboardVisible(false) }

// --- question content ---

// UploadQuestions validates and installs question content directly.
func (s *Service) UploadQuestions(questions []domain.Question) (int, error) {
	normalized, err := domain.ValidateQuestions(questions)
	if err != nil {
		return 0, err
	}
	if err := s.session.ApplyQuestions(normalized); err != nil {
		return 0, err
	}
	return len(normalized), nil
}

// ExportQuestions returns the active question list, answers included.
func (s *Service) ExportQuestions() []domain.Question {
	return s.session.Questions()
}

// SaveSet validates and persists a named question set.
func (s *Service) SaveSet(ctx context.Context, name string, questions []domain.Question) error {
	normalized, err := domain.ValidateQuestions(questions)
	if err != nil {
		return err
	}
	return s.sets.Save(ctx, name, normalized)
}

func (s *Service) LoadSet(ctx context.Context, name string) ([]domain.Question, error) {
	return s.sets.Load(ctx, name)
}

func (s *Service) ListSets(ctx context.Context) ([]domain.SetInfo, error) {
	return s.sets.List(ctx)
}

func (s *Service) DeleteSet(ctx context.Context, name string) error {
	return s.sets.Delete(ctx, name)
}

// ApplySet loads a stored set and makes it the session's question list.
func (s *Service) ApplySet(ctx context.Context, name string) (int, error) {
	questions, err := s.sets.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	normalized, err := domain.ValidateQuestions(questions)
	if err != nil {
		return 0, err
	}
	if err := s.session.ApplyQuestions(normalized); err != nil {
		return 0, err
	}
	return len(normalized), nil
}

// --- allow-list ---

func (s *Service) AllowedEmails(ctx context.Context) ([]string, error) {
	return s.allow.Emails(ctx)
}

// UpdateAllowedEmails applies a replace/append/remove edit and returns
// the resulting list.
func (s *Service) UpdateAllowedEmails(ctx context.Context, emails []string, mode string) ([]string, error) {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if n := domain.NormalizeEmail(e); n != "" {
			normalized = append(normalized, n)
		}
	}
	var err error
	switch mode {
	case "append":
		err = s.allow.Append(ctx, normalized)
	case "remove":
		err = s.allow.Remove(ctx, normalized)
	case "", "replace":
		err = s.allow.Replace(ctx, normalized)
	default:
		return nil, &domain.ValidationError{Detail: "unknown allow-list mode " + mode}
	}
	if err != nil {
		return nil, err
	}
	return s.allow.Emails(ctx)
}
