package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"dialog-backend/internal/models"
)

// ErrNotFound is returned when a lookup has no result.
var ErrNotFound = errors.New("statement not found")

// StatementStore persists the statements the chatbot learns from.
// Implementations must be safe for concurrent use.
type StatementStore interface {
	Create(ctx context.Context, s *models.Statement) error
	CreateMany(ctx context.Context, statements []*models.Statement) error
	Filter(ctx context.Context, q Query) ([]*models.Statement, error)
	Count(ctx context.Context, q Query) (int, error)
	// LatestResponse returns the newest bot statement in the conversation.
	LatestResponse(ctx context.Context, conversation string) (*models.Statement, error)
	Drop(ctx context.Context) error
	Close()
}

// Query selects statements. Zero-valued fields do not filter.
type Query struct {
	Text               string
	SearchTextContains string // matches when any word is present
	InResponseTo       string
	SearchInResponseTo string
	Conversation       string
	PersonaNotPrefix   string
	PersonaPrefix      string
	ExcludeText        []string
	NewestFirst        bool
	Limit              int
}

// Words returns the distinct words of SearchTextContains.
func (q Query) Words() []string {
	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(q.SearchTextContains) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// Match reports whether s satisfies every filter of q.
// Stores that cannot push filters down use it on loaded statements.
func (q Query) Match(s *models.Statement) bool {
	if q.Text != "" && s.Text != q.Text {
		return false
	}
	if q.InResponseTo != "" && s.InResponseTo != q.InResponseTo {
		return false
	}
	if q.SearchInResponseTo != "" && s.SearchInResponseTo != q.SearchInResponseTo {
		return false
	}
	if q.Conversation != "" && s.Conversation != q.Conversation {
		return false
	}
	if q.PersonaNotPrefix != "" && strings.HasPrefix(s.Persona, q.PersonaNotPrefix) {
		return false
	}
	if q.PersonaPrefix != "" && !strings.HasPrefix(s.Persona, q.PersonaPrefix) {
		return false
	}
	for _, t := range q.ExcludeText {
		if s.Text == t {
			return false
		}
	}
	if words := q.Words(); len(words) > 0 {
		found := false
		for _, w := range words {
			if strings.Contains(s.SearchText, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// apply filters, orders and limits an in-memory result set.
func (q Query) apply(all []*models.Statement) []*models.Statement {
	out := make([]*models.Statement, 0)
	for _, s := range all {
		if q.Match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if q.NewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func latestResponseQuery(conversation string) Query {
	return Query{
		Conversation:  conversation,
		PersonaPrefix: models.BotPersonaPrefix,
		NewestFirst:   true,
		Limit:         1,
	}
}
