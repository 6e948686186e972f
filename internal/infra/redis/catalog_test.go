package redis

import (
	"context"
	"testing"
	"time"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type countingLoader struct {
	inner memory.CatalogLoader
	loads int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (memory.CatalogEntry, error) {
	l.loads++
	return l.inner.LoadQuiz(ctx, quizID)
}

func TestCatalogCachesInRedis(t *testing.T) {
	client := testClient(t)
	loader := &countingLoader{inner: memory.NewStaticCatalogLoader(map[string]memory.CatalogEntry{
		"quiz-1": {Quiz: domain.Quiz{QuizID: "quiz-1", Name: "cached"}, OwnerID: "owner-1"},
	})}
	catalog := NewCatalog(client, loader, time.Minute)
	ctx := context.Background()

	quiz, err := catalog.GetQuizSnapshot(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if quiz.Name != "cached" {
		t.Fatalf("quiz name = %q", quiz.Name)
	}
	if owner, err := catalog.QuizOwner(ctx, "quiz-1"); err != nil || owner != "owner-1" {
		t.Fatalf("owner = %q, %v", owner, err)
	}
	if loader.loads != 1 {
		t.Fatalf("loads = %d, want 1", loader.loads)
	}

	// a fresh instance reads the shared cache, not the loader
	other := NewCatalog(client, loader, time.Minute)
	if _, err := other.GetQuizSnapshot(ctx, "quiz-1"); err != nil {
		t.Fatalf("get via second instance: %v", err)
	}
	if loader.loads != 1 {
		t.Fatalf("loads = %d, want cache hit across instances", loader.loads)
	}

	if exists := client.Exists(ctx, "quiz:quiz-1:snapshot", "quiz:quiz-1:owner").Val(); exists != 2 {
		t.Fatalf("cache keys present = %d, want 2", exists)
	}
}

func TestCatalogPropagatesMiss(t *testing.T) {
	catalog := NewCatalog(testClient(t), memory.NewStaticCatalogLoader(nil), time.Minute)
	if _, err := catalog.GetQuizSnapshot(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("err = %v, want ErrQuizNotFound", err)
	}
}
