package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialog-backend/internal/models"
)

// MemoryStatementRepo keeps statements in process memory.
type MemoryStatementRepo struct {
	mu         sync.RWMutex
	statements []*models.Statement
}

func NewMemoryStatementRepo() *MemoryStatementRepo {
	return &MemoryStatementRepo{}
}

func (r *MemoryStatementRepo) Create(ctx context.Context, s *models.Statement) error {
	return r.CreateMany(ctx, []*models.Statement{s})
}

func (r *MemoryStatementRepo) CreateMany(_ context.Context, statements []*models.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range statements {
		prepare(s)
		stored := *s
		r.statements = append(r.statements, &stored)
	}
	return nil
}

func (r *MemoryStatementRepo) Filter(_ context.Context, q Query) ([]*models.Statement, error) {
	r.mu.RLock()
	matched := q.apply(r.statements)
	r.mu.RUnlock()

	out := make([]*models.Statement, len(matched))
	for i, s := range matched {
		c := *s
		out[i] = &c
	}
	return out, nil
}

func (r *MemoryStatementRepo) Count(ctx context.Context, q Query) (int, error) {
	q.Limit = 0
	found, err := r.Filter(ctx, q)
	return len(found), err
}

func (r *MemoryStatementRepo) LatestResponse(ctx context.Context, conversation string) (*models.Statement, error) {
	found, err := r.Filter(ctx, latestResponseQuery(conversation))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *MemoryStatementRepo) Drop(context.Context) error {
	r.mu.Lock()
	r.statements = nil
	r.mu.Unlock()
	return nil
}

func (r *MemoryStatementRepo) Close() {}

// prepare assigns the id and creation time of a statement about to be stored.
func prepare(s *models.Statement) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
}
