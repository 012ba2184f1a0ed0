package app

import (
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func TestAwardForDecaysMonotonically(t *testing.T) {
	prev := scoreBase + 1
	for elapsed := 0; elapsed <= 20; elapsed++ {
		award := awardFor(time.Duration(elapsed)*time.Second, 20)
		if award > prev {
			t.Fatalf("award increased at %ds: %d > %d", elapsed, award, prev)
		}
		if award < scoreMin {
			t.Fatalf("award below floor at %ds: %d", elapsed, award)
		}
		prev = award
	}
	if awardFor(0, 20) != scoreBase {
		t.Fatalf("instant answer should earn the full base, got %d", awardFor(0, 20))
	}
	if awardFor(20*time.Second, 20) != scoreMin {
		t.Fatalf("deadline answer should earn the floor, got %d", awardFor(20*time.Second, 20))
	}
}

func TestIsCorrect(t *testing.T) {
	mcq := domain.Question{
		ID: "q1", Prompt: "p", Answer: "b",
		Choices: []domain.Choice{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
	}
	if !isCorrect(mcq, "b") {
		t.Fatalf("expected exact choice id match")
	}
	if isCorrect(mcq, "B") {
		t.Fatalf("choice ids must match exactly")
	}

	open := domain.Question{ID: "q2", Prompt: "p", Answer: "Four"}
	if !isCorrect(open, "  four ") {
		t.Fatalf("open-ended match should trim and fold case")
	}
	if isCorrect(open, "five") {
		t.Fatalf("wrong text accepted")
	}

	unanswered := domain.Question{ID: "q3", Prompt: "p"}
	if isCorrect(unanswered, "anything") {
		t.Fatalf("question without an answer graded a submission correct")
	}
}

func TestBuildLeaderboardOrdering(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alice := &participant{id: "1", name: "Alice", email: "alice@example.com", score: 50, scoreAt: base.Add(10 * time.Second)}
	bob := &participant{id: "2", name: "Bob", email: "bob@example.com", score: 50, scoreAt: base.Add(5 * time.Second)}
	cara := &participant{id: "3", name: "Cara", email: "cara@example.com", score: 80, scoreAt: base.Add(20 * time.Second)}
	dan := &participant{id: "4", name: "Dan", email: "dan@example.com"}

	lb := buildLeaderboard([]*participant{alice, bob, cara, dan}, base)

	want := []string{"Cara", "Bob", "Alice", "Dan"}
	for i, name := range want {
		if lb.Entries[i].DisplayName != name {
			t.Fatalf("rank %d: expected %s, got %s", i+1, name, lb.Entries[i].DisplayName)
		}
		if lb.Entries[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, lb.Entries[i].Rank)
		}
	}
}

func TestBuildLeaderboardRegistrationOrderFallback(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := &participant{id: "1", name: "First", email: "first@example.com"}
	second := &participant{id: "2", name: "Second", email: "second@example.com"}

	lb := buildLeaderboard([]*participant{first, second}, base)
	if lb.Entries[0].DisplayName != "First" || lb.Entries[1].DisplayName != "Second" {
		t.Fatalf("expected registration order on full tie, got %+v", lb.Entries)
	}
}
