package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SetCache caches question sets in Redis as JSON values and falls back
// to the wrapped store on cache miss. Writes and deletes pass through
// and invalidate the cached value.
type SetCache struct {
	client *redis.Client
	inner  app.QuestionSetStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewSetCache(client *redis.Client, inner app.QuestionSetStore, ttl time.Duration) *SetCache {
	return &SetCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SetCache) Load(ctx context.Context, name string) ([]domain.Question, error) {
	key := c.key(name)

	if questions, ok := c.fromCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(name, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.inner.Load(ctx, name)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *SetCache) Save(ctx context.Context, name string, questions []domain.Question) error {
	if err := c.inner.Save(ctx, name, questions); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(name)).Err()
	return nil
}

func (c *SetCache) Delete(ctx context.Context, name string) error {
	if err := c.inner.Delete(ctx, name); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(name)).Err()
	return nil
}

func (c *SetCache) List(ctx context.Context) ([]domain.SetInfo, error) {
	return c.inner.List(ctx)
}

func (c *SetCache) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *SetCache) key(name string) string {
	return "quiz:set:" + name
}

func (c *SetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
