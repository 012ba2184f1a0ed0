package memory

import (
	"context"
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

type countingStore struct {
	*QuestionSetStore
	loads int
}

func (c *countingStore) Load(ctx context.Context, name string) ([]domain.Question, error) {
	c.loads++
	return c.QuestionSetStore.Load(ctx, name)
}

func TestSetCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{QuestionSetStore: NewQuestionSetStore()}
	cache := NewSetCache(inner, time.Minute)

	questions := []domain.Question{{ID: "q1", Prompt: "p", Answer: "x", Duration: 30}}
	if err := cache.Save(ctx, "warmup", questions); err != nil {
		t.Fatalf("save: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := cache.Load(ctx, "warmup")
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if len(got) != 1 || got[0].ID != "q1" {
			t.Fatalf("load %d: unexpected content %+v", i, got)
		}
	}
	if inner.loads != 1 {
		t.Fatalf("expected a single backing load, got %d", inner.loads)
	}
}

func TestSetCacheExpires(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{QuestionSetStore: NewQuestionSetStore()}
	cache := NewSetCache(inner, time.Minute)

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if err := cache.Save(ctx, "warmup", []domain.Question{{ID: "q1", Prompt: "p", Answer: "x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := cache.Load(ctx, "warmup"); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Jump past the TTL plus its jitter ceiling.
	now = now.Add(2 * time.Minute)
	if _, err := cache.Load(ctx, "warmup"); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if inner.loads != 2 {
		t.Fatalf("expected expired entry to reload, got %d loads", inner.loads)
	}
}

func TestSetCacheInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{QuestionSetStore: NewQuestionSetStore()}
	cache := NewSetCache(inner, time.Minute)

	if err := cache.Save(ctx, "warmup", []domain.Question{{ID: "q1", Prompt: "p", Answer: "x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := cache.Load(ctx, "warmup"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := cache.Save(ctx, "warmup", []domain.Question{{ID: "q2", Prompt: "p2", Answer: "y"}}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := cache.Load(ctx, "warmup")
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q2" {
		t.Fatalf("stale content after overwrite: %+v", got)
	}

	if err := cache.Delete(ctx, "warmup"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Load(ctx, "warmup"); err != domain.ErrSetNotFound {
		t.Fatalf("expected ErrSetNotFound after delete, got %v", err)
	}
}
