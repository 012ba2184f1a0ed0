// Package file persists named question sets as human-editable JSON
// files under <dir>/question_sets/<name>.json.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"livequiz-service/internal/domain"
)

type QuestionSetStore struct {
	dir string
}

// NewQuestionSetStore creates the question_sets directory under dataDir
// if needed.
func NewQuestionSetStore(dataDir string) (*QuestionSetStore, error) {
	dir := filepath.Join(dataDir, "question_sets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create question set dir: %w", err)
	}
	return &QuestionSetStore{dir: dir}, nil
}

func (s *QuestionSetStore) Save(_ context.Context, name string, questions []domain.Question) error {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	path := s.path(name)
	// Write-then-rename keeps the file intact if the process dies mid-write.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write question set: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename question set: %w", err)
	}
	return nil
}

func (s *QuestionSetStore) Load(_ context.Context, name string) ([]domain.Question, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSetNotFound
		}
		return nil, fmt.Errorf("read question set: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set %q: %w", name, err)
	}
	return questions, nil
}

func (s *QuestionSetStore) List(_ context.Context) ([]domain.SetInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list question sets: %w", err)
	}
	out := make([]domain.SetInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		count := 0
		if data, err := os.ReadFile(filepath.Join(s.dir, entry.Name())); err == nil {
			var questions []domain.Question
			if json.Unmarshal(data, &questions) == nil {
				count = len(questions)
			}
		}
		out = append(out, domain.SetInfo{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *QuestionSetStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return domain.ErrSetNotFound
	}
	return err
}

func (s *QuestionSetStore) path(name string) string {
	return filepath.Join(s.dir, sanitizeName(name)+".json")
}

// sanitizeName keeps alphanumerics, dashes and underscores, lowercased,
// so set names cannot escape the storage directory.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(name) {
		if ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		}
	}
	safe := strings.Trim(b.String(), "-_")
	if safe == "" {
		return "untitled"
	}
	return safe
}
