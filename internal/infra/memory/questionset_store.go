package memory

import (
	"context"
	"sort"
	"sync"

	"livequiz-service/internal/domain"
)

// QuestionSetStore is an in-memory implementation of app.QuestionSetStore,
// useful for tests and demos.
type QuestionSetStore struct {
	mu   sync.RWMutex
	sets map[string][]domain.Question
}

func NewQuestionSetStore() *QuestionSetStore {
	return &QuestionSetStore{sets: make(map[string][]domain.Question)}
}

func (s *QuestionSetStore) Save(_ context.Context, name string, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[name] = append([]domain.Question(nil), questions...)
	return nil
}

func (s *QuestionSetStore) Load(_ context.Context, name string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions, ok := s.sets[name]
	if !ok {
		return nil, domain.ErrSetNotFound
	}
	return append([]domain.Question(nil), questions...), nil
}

func (s *QuestionSetStore) List(_ context.Context) ([]domain.SetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SetInfo, 0, len(s.sets))
	for name, questions := range s.sets {
		out = append(out, domain.SetInfo{Name: name, Count: len(questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *QuestionSetStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[name]; !ok {
		return domain.ErrSetNotFound
	}
	delete(s.sets, name)
	return nil
}
