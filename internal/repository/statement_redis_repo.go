package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dialog-backend/internal/models"
)

// RedisStatementRepo stores statements as JSON values of a single hash.
// Filtering happens in process after loading the hash.
type RedisStatementRepo struct {
	client *redis.Client
	key    string
}

func NewRedisStatementRepo(client *redis.Client, prefix string) *RedisStatementRepo {
	if prefix == "" {
		prefix = "chatbot"
	}
	return &RedisStatementRepo{
		client: client,
		key:    prefix + ":statements",
	}
}

func (r *RedisStatementRepo) Create(ctx context.Context, s *models.Statement) error {
	return r.CreateMany(ctx, []*models.Statement{s})
}

func (r *RedisStatementRepo) CreateMany(ctx context.Context, statements []*models.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(statements))
	for _, s := range statements {
		prepare(s)
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode statement: %w", err)
		}
		values[s.ID.String()] = data
	}

	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		return fmt.Errorf("failed to store statements: %w", err)
	}
	return nil
}

func (r *RedisStatementRepo) Filter(ctx context.Context, q Query) ([]*models.Statement, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(all), nil
}

func (r *RedisStatementRepo) Count(ctx context.Context, q Query) (int, error) {
	q.Limit = 0
	found, err := r.Filter(ctx, q)
	return len(found), err
}

func (r *RedisStatementRepo) LatestResponse(ctx context.Context, conversation string) (*models.Statement, error) {
	found, err := r.Filter(ctx, latestResponseQuery(conversation))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *RedisStatementRepo) Drop(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *RedisStatementRepo) Close() {
	r.client.Close()
}

func (r *RedisStatementRepo) load(ctx context.Context) ([]*models.Statement, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load statements: %w", err)
	}

	out := make([]*models.Statement, 0, len(raw))
	for id, v := range raw {
		var s models.Statement
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, fmt.Errorf("failed to decode statement %s: %w", id, err)
		}
		out = append(out, &s)
	}
	return out, nil
}
