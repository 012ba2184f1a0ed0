package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAllowListEmptyMeansOpen(t *testing.T) {
	ctx := context.Background()
	allow := NewAllowList(newTestClient(t))

	ok, err := allow.IsAllowed(ctx, "anyone@example.com")
	if err != nil {
		t.Fatalf("is allowed: %v", err)
	}
	if !ok {
		t.Fatalf("empty allow-list should admit everyone")
	}
}

func TestAllowListReplaceAppendRemove(t *testing.T) {
	ctx := context.Background()
	allow := NewAllowList(newTestClient(t))

	if err := allow.Replace(ctx, []string{"alice@example.com", "bob@example.com"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	ok, err := allow.IsAllowed(ctx, "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("alice should be allowed: ok=%v err=%v", ok, err)
	}
	ok, err = allow.IsAllowed(ctx, "eve@example.com")
	if err != nil || ok {
		t.Fatalf("eve should be rejected: ok=%v err=%v", ok, err)
	}

	if err := allow.Append(ctx, []string{"cara@example.com"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := allow.Remove(ctx, []string{"bob@example.com"}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	emails, err := allow.Emails(ctx)
	if err != nil {
		t.Fatalf("emails: %v", err)
	}
	want := []string{"alice@example.com", "cara@example.com"}
	if len(emails) != len(want) {
		t.Fatalf("unexpected members: %v", emails)
	}
	for i := range want {
		if emails[i] != want[i] {
			t.Fatalf("unexpected members: %v", emails)
		}
	}

	// Replace with an empty list reopens registration.
	if err := allow.Replace(ctx, nil); err != nil {
		t.Fatalf("replace with empty: %v", err)
	}
	ok, err = allow.IsAllowed(ctx, "eve@example.com")
	if err != nil || !ok {
		t.Fatalf("cleared allow-list should admit everyone: ok=%v err=%v", ok, err)
	}
}
