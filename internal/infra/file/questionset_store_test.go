package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"livequiz-service/internal/domain"
)

func testQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "What is 2 + 2?",
			Choices: []domain.Choice{
				{ID: "a", Text: "3"},
				{ID: "b", Text: "4"},
			},
			Answer:   "b",
			Duration: 20,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewQuestionSetStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save(ctx, "warmup", testQuestions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "warmup")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q1" || got[0].Answer != "b" || len(got[0].Choices) != 2 {
		t.Fatalf("round trip lost content: %+v", got)
	}
}

func TestLoadMissingSet(t *testing.T) {
	store, err := NewQuestionSetStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
}

func TestListReportsCounts(t *testing.T) {
	ctx := context.Background()
	store, err := NewQuestionSetStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save(ctx, "beta", testQuestions()); err != nil {
		t.Fatalf("save beta: %v", err)
	}
	two := append(testQuestions(), domain.Question{ID: "q2", Prompt: "p2", Answer: "y", Duration: 15})
	if err := store.Save(ctx, "alpha", two); err != nil {
		t.Fatalf("save alpha: %v", err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sets, got %+v", infos)
	}
	if infos[0].Name != "alpha" || infos[0].Count != 2 {
		t.Fatalf("unexpected first entry: %+v", infos[0])
	}
	if infos[1].Name != "beta" || infos[1].Count != 1 {
		t.Fatalf("unexpected second entry: %+v", infos[1])
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewQuestionSetStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save(ctx, "warmup", testQuestions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "warmup"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "warmup"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound on repeat delete, got %v", err)
	}
}

func TestSanitizeNameKeepsFilesInDir(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	store, err := NewQuestionSetStore(dataDir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save(ctx, "../../Escape Me!", testQuestions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "question_sets", "escapeme.json")); err != nil {
		t.Fatalf("expected sanitized file inside the store dir: %v", err)
	}
	if _, err := store.Load(ctx, "../../Escape Me!"); err != nil {
		t.Fatalf("load via original name: %v", err)
	}

	cases := map[string]string{
		"My Set 01":  "myset01",
		"--weird--":  "weird",
		"___":        "untitled",
		"ALL-CAPS":   "all-caps",
		"snake_case": "snake_case",
	}
	for in, want := range cases {
		if got := sanitizeName(in); got != want {
			t.Fatalf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
