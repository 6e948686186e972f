package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizhost-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogEntry pairs a quiz with its owning admin.
type CatalogEntry struct {
	Quiz    domain.Quiz
	OwnerID string
}

// CatalogLoader fetches quiz content from a backing store (e.g. Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (CatalogEntry, error)
}

// Catalog caches catalog entries with TTL to avoid repeated DB hits.
// It implements app.QuizCatalog.
type Catalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	entry     CatalogEntry
	expiresAt time.Time
}

func NewCatalog(loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEntry),
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

func (c *Catalog) get(ctx context.Context, quizID string) (CatalogEntry, error) {
	now := c.clock()

	c.mu.RLock()
	if cached, ok := c.cache[quizID]; ok && cached.expiresAt.After(now) {
		c.mu.RUnlock()
		return cached.entry, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if cached, ok := c.cache[quizID]; ok && cached.expiresAt.After(now) {
			c.mu.RUnlock()
			return cached.entry, nil
		}
		c.mu.RUnlock()

		entry, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return CatalogEntry{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedEntry{
			entry:     entry,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return CatalogEntry{}, err
	}
	return result.(CatalogEntry), nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a loader backed by an in-memory map (tests/demos).
type StaticCatalogLoader struct {
	entries map[string]CatalogEntry
}

func NewStaticCatalogLoader(entries map[string]CatalogEntry) *StaticCatalogLoader {
	return &StaticCatalogLoader{entries: entries}
}

func (l *StaticCatalogLoader) LoadQuiz(_ context.Context, quizID string) (CatalogEntry, error) {
	if entry, ok := l.entries[quizID]; ok {
		return entry, nil
	}
	return CatalogEntry{}, domain.ErrQuizNotFound
}
