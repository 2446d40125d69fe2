package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"dialog-backend/internal/models"
)

const statementColumns = `id, text, search_text, conversation, persona, in_response_to,
	search_in_response_to, tags, created_at`

// StatementRepo is the relational statement store.
type StatementRepo struct {
	pool *pgxpool.Pool
}

func NewStatementRepo(pool *pgxpool.Pool) *StatementRepo {
	return &StatementRepo{pool: pool}
}

func (r *StatementRepo) Create(ctx context.Context, s *models.Statement) error {
	prepare(s)
	if s.Tags == nil {
		s.Tags = []string{}
	}

	query := `INSERT INTO statement (` + statementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Text, s.SearchText, s.Conversation, s.Persona, s.InResponseTo,
		s.SearchInResponseTo, s.Tags, s.CreatedAt,
	)
	return err
}

func (r *StatementRepo) CreateMany(ctx context.Context, statements []*models.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(statements))
	for _, s := range statements {
		prepare(s)
		tags := s.Tags
		if tags == nil {
			tags = []string{}
		}
		rows = append(rows, []interface{}{
			pgtype.UUID{Bytes: s.ID, Valid: true}, s.Text, s.SearchText, s.Conversation, s.Persona, s.InResponseTo,
			s.SearchInResponseTo, tags, s.CreatedAt,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"statement"},
		[]string{"id", "text", "search_text", "conversation", "persona", "in_response_to",
			"search_in_response_to", "tags", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy statements: %w", err)
	}
	return nil
}

func (r *StatementRepo) Filter(ctx context.Context, q Query) ([]*models.Statement, error) {
	where, args := buildWhere(q)

	query := `SELECT ` + statementColumns + ` FROM statement` + where
	if q.NewestFirst {
		query += ` ORDER BY created_at DESC, id`
	} else {
		query += ` ORDER BY created_at ASC, id`
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Statement
	for rows.Next() {
		s := &models.Statement{}
		if err := rows.Scan(
			&s.ID, &s.Text, &s.SearchText, &s.Conversation, &s.Persona, &s.InResponseTo,
			&s.SearchInResponseTo, &s.Tags, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *StatementRepo) Count(ctx context.Context, q Query) (int, error) {
	where, args := buildWhere(q)

	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM statement`+where, args...).Scan(&n)
	return n, err
}

func (r *StatementRepo) LatestResponse(ctx context.Context, conversation string) (*models.Statement, error) {
	found, err := r.Filter(ctx, latestResponseQuery(conversation))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *StatementRepo) Drop(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM statement")
	return err
}

func (r *StatementRepo) Close() {
	r.pool.Close()
}

// buildWhere renders the filters of q as a WHERE clause.
func buildWhere(q Query) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Text != "" {
		add("text = $%d", q.Text)
	}
	if q.InResponseTo != "" {
		add("in_response_to = $%d", q.InResponseTo)
	}
	if q.SearchInResponseTo != "" {
		add("search_in_response_to = $%d", q.SearchInResponseTo)
	}
	if q.Conversation != "" {
		add("conversation = $%d", q.Conversation)
	}
	if q.PersonaNotPrefix != "" {
		add("persona NOT LIKE $%d", likePrefix(q.PersonaNotPrefix))
	}
	if q.PersonaPrefix != "" {
		add("persona LIKE $%d", likePrefix(q.PersonaPrefix))
	}
	if len(q.ExcludeText) > 0 {
		add("NOT (text = ANY($%d))", q.ExcludeText)
	}
	if words := q.Words(); len(words) > 0 {
		patterns := make([]string, len(words))
		for i, w := range words {
			patterns[i] = "%" + escapeLike(w) + "%"
		}
		add("search_text LIKE ANY($%d)", patterns)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func likePrefix(p string) string {
	return escapeLike(p) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// IsNotFound reports whether err means no statement matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
