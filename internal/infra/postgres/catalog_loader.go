package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads quiz JSONB and ownership from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadQuiz(ctx context.Context, quizID string) (memory.CatalogEntry, error) {
	var raw []byte
	var ownerID string
	err := l.pool.QueryRow(ctx, `SELECT owner_id, data FROM quizzes WHERE id=$1`, quizID).Scan(&ownerID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return memory.CatalogEntry{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return memory.CatalogEntry{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return memory.CatalogEntry{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return memory.CatalogEntry{Quiz: quiz, OwnerID: ownerID}, nil
}
