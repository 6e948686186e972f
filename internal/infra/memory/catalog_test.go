package memory

import (
	"context"
	"testing"
	"time"

	"quizhost-service/internal/domain"
)

type countingLoader struct {
	inner CatalogLoader
	loads int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (CatalogEntry, error) {
	l.loads++
	return l.inner.LoadQuiz(ctx, quizID)
}

func TestCatalogCachesEntries(t *testing.T) {
	loader := &countingLoader{inner: NewStaticCatalogLoader(map[string]CatalogEntry{
		"quiz-1": {Quiz: domain.Quiz{QuizID: "quiz-1", Name: "cached"}, OwnerID: "owner-1"},
	})}

	now := time.Unix(1_700_000_000, 0)
	catalog := NewCatalog(loader, time.Minute)
	catalog.clock = func() time.Time { return now }

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
		t.Fatalf("loads = %d, want 1 (second get served from cache)", loader.loads)
	}

	// jitter keeps entries at most 10% past the TTL
	now = now.Add(time.Minute + time.Minute/10 + time.Second)
	if _, err := catalog.GetQuizSnapshot(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loader.loads != 2 {
		t.Fatalf("loads = %d, want 2 after TTL expiry", loader.loads)
	}
}

func TestCatalogPropagatesMiss(t *testing.T) {
	catalog := NewCatalog(NewStaticCatalogLoader(nil), time.Minute)
	if _, err := catalog.GetQuizSnapshot(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("err = %v, want ErrQuizNotFound", err)
	}
}
