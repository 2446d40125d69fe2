package chatbot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"dialog-backend/internal/models"
	"dialog-backend/internal/repository"
)

// A SelectionMethod picks one response out of the known responses to an input.
// responses is never empty.
type SelectionMethod func(ctx context.Context, input *models.Statement, responses []*models.Statement, store repository.StatementStore) (*models.Statement, error)

// FirstResponse returns the oldest known response.
func FirstResponse(_ context.Context, _ *models.Statement, responses []*models.Statement, _ repository.StatementStore) (*models.Statement, error) {
	return responses[0], nil
}

// MostFrequentResponse returns the response given most often to the input text.
// Ties go to the earlier response.
func MostFrequentResponse(ctx context.Context, input *models.Statement, responses []*models.Statement, store repository.StatementStore) (*models.Statement, error) {
	var best *models.Statement
	bestCount := -1
	counted := make(map[string]int)

	for _, r := range responses {
		n, ok := counted[r.Text]
		if !ok {
			var err error
			n, err = store.Count(ctx, repository.Query{Text: r.Text, InResponseTo: input.Text})
			if err != nil {
				return nil, fmt.Errorf("failed to count responses: %w", err)
			}
			counted[r.Text] = n
		}
		if n > bestCount {
			best, bestCount = r, n
		}
	}
	return best, nil
}

// RandomResponse returns any of the responses.
func RandomResponse(_ context.Context, _ *models.Statement, responses []*models.Statement, _ repository.StatementStore) (*models.Statement, error) {
	return responses[rand.Intn(len(responses))], nil
}

// SelectionMethodByName resolves the configured selection method.
func SelectionMethodByName(name string) (SelectionMethod, error) {
	switch strings.ToLower(name) {
	case "", "first":
		return FirstResponse, nil
	case "most_frequent", "most-frequent":
		return MostFrequentResponse, nil
	case "random":
		return RandomResponse, nil
	default:
		return nil, fmt.Errorf("unknown response selection method %q", name)
	}
}
