package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Catalog caches quiz snapshots in Redis (JSON per quiz, owner alongside) and
// falls back to a loader on cache miss. Keys:
//
//	quiz:{quizID}:snapshot  JSON-encoded quiz
//	quiz:{quizID}:owner     owner id
type Catalog struct {
	client *redis.Client
	loader memory.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader memory.CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) GetQuizSnapshot(ctx context.Context, quizID string) (domain.Quiz, error) {
	entry, err := c.get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return entry.Quiz, nil
}

func (c *Catalog) QuizOwner(ctx context.Context, quizID string) (string, error) {
	entry, err := c.get(ctx, quizID)
	if err != nil {
		return "", err
	}
	return entry.OwnerID, nil
}

func (c *Catalog) get(ctx context.Context, quizID string) (memory.CatalogEntry, error) {
	if entry, ok := c.cached(ctx, quizID); ok {
		return entry, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if entry, ok := c.cached(ctx, quizID); ok {
			return entry, nil
		}

		entry, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return memory.CatalogEntry{}, err
		}

		raw, err := json.Marshal(entry.Quiz)
		if err != nil {
			return memory.CatalogEntry{}, err
		}
		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		pipe.Set(ctx, c.snapshotKey(quizID), raw, ttl)
		pipe.Set(ctx, c.ownerKey(quizID), entry.OwnerID, ttl)
		_, _ = pipe.Exec(ctx)

		return entry, nil
	})
	if err != nil {
		return memory.CatalogEntry{}, err
	}
	return result.(memory.CatalogEntry), nil
}

func (c *Catalog) cached(ctx context.Context, quizID string) (memory.CatalogEntry, bool) {
	raw, err := c.client.Get(ctx, c.snapshotKey(quizID)).Bytes()
	if err != nil {
		return memory.CatalogEntry{}, false
	}
	ownerID, err := c.client.Get(ctx, c.ownerKey(quizID)).Result()
	if err != nil {
		return memory.CatalogEntry{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return memory.CatalogEntry{}, false
	}
	return memory.CatalogEntry{Quiz: quiz, OwnerID: ownerID}, true
}

func (c *Catalog) snapshotKey(quizID string) string {
	return "quiz:" + quizID + ":snapshot"
}

func (c *Catalog) ownerKey(quizID string) string {
	return "quiz:" + quizID + ":owner"
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
