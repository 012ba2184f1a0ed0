package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// SetCache wraps a QuestionSetStore with a TTL read cache so repeated
// loads (apply, export round-trips) avoid hitting the backing store.
type SetCache struct {
	inner app.QuestionSetStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewSetCache(inner app.QuestionSetStore, ttl time.Duration) *SetCache {
	return &SetCache{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedSet),
	}
}

func (c *SetCache) Load(ctx context.Context, name string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[name]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(name, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[name]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.inner.Load(ctx, name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[name] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
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
	c.invalidate(name)
	return nil
}

func (c *SetCache) Delete(ctx context.Context, name string) error {
	if err := c.inner.Delete(ctx, name); err != nil {
		return err
	}
	c.invalidate(name)
	return nil
}

func (c *SetCache) List(ctx context.Context) ([]domain.SetInfo, error) {
	return c.inner.List(ctx)
}

func (c *SetCache) invalidate(name string) {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()
}

func (c *SetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
