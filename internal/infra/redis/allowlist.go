package redis

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"
)

const allowListKey = "quiz:allowed_emails"

// AllowList keeps the registration allow-list in a Redis set so it
// survives restarts and can be shared by operator tooling.
type AllowList struct {
	client *redis.Client
}

func NewAllowList(client *redis.Client) *AllowList {
	return &AllowList{client: client}
}

func (a *AllowList) Replace(ctx context.Context, emails []string) error {
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, allowListKey)
	if len(emails) > 0 {
		pipe.SAdd(ctx, allowListKey, toAny(emails)...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (a *AllowList) Append(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	return a.client.SAdd(ctx, allowListKey, toAny(emails)...).Err()
}

func (a *AllowList) Remove(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	return a.client.SRem(ctx, allowListKey, toAny(emails)...).Err()
}

func (a *AllowList) Emails(ctx context.Context) ([]string, error) {
	emails, err := a.client.SMembers(ctx, allowListKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(emails)
	return emails, nil
}

func (a *AllowList) IsAllowed(ctx context.Context, email string) (bool, error) {
	size, err := a.client.SCard(ctx, allowListKey).Result()
	if err != nil {
		return false, err
	}
	if size == 0 {
		return true, nil
	}
	return a.client.SIsMember(ctx, allowListKey, email).Result()
}

func toAny(emails []string) []any {
	out := make([]any, len(emails))
	for i, e := range emails {
		out[i] = e
	}
	return out
}
