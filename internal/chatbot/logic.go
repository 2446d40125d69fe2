package chatbot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dialog-backend/internal/models"
	"dialog-backend/internal/repository"
)

// A LogicAdapter proposes a response to an input statement.
// The returned statement carries the adapter's confidence.
type LogicAdapter interface {
	Name() string
	CanProcess(input *models.Statement) bool
	Process(ctx context.Context, input *models.Statement) (*models.Statement, error)
}

const (
	DefaultResponseText               = "I am sorry, but I do not understand."
	DefaultMaximumSimilarityThreshold = 0.95
)

// BestMatch answers with a stored response to the closest known statement.
type BestMatch struct {
	logger          *zap.Logger
	store           repository.StatementStore
	compare         Comparator
	selectResponse  SelectionMethod
	threshold       float64
	defaultResponse string
	excludedWords   []string
}

// BestMatchParameters describe how to create a new BestMatch.
// Zero values fall back to the defaults.
type BestMatchParameters struct {
	Logger                     *zap.Logger
	Store                      repository.StatementStore
	Comparator                 Comparator
	SelectionMethod            SelectionMethod
	MaximumSimilarityThreshold float64
	DefaultResponse            string
	ExcludedWords              []string
}

func NewBestMatch(params *BestMatchParameters) (*BestMatch, error) {
	if params.Logger == nil {
		return nil, errors.New("missing logger")
	}
	if params.Store == nil {
		return nil, errors.New("missing statement store")
	}

	bm := &BestMatch{
		logger:          params.Logger,
		store:           params.Store,
		compare:         params.Comparator,
		selectResponse:  params.SelectionMethod,
		threshold:       params.MaximumSimilarityThreshold,
		defaultResponse: params.DefaultResponse,
		excludedWords:   params.ExcludedWords,
	}
	if bm.compare == nil {
		bm.compare = LevenshteinDistance
	}
	if bm.selectResponse == nil {
		bm.selectResponse = FirstResponse
	}
	if bm.threshold <= 0 {
		bm.threshold = DefaultMaximumSimilarityThreshold
	}
	if bm.defaultResponse == "" {
		bm.defaultResponse = DefaultResponseText
	}
	return bm, nil
}

func (bm *BestMatch) Name() string { return "best_match" }

// DefaultResponse is the text answered when nothing known matches.
func (bm *BestMatch) DefaultResponse() string { return bm.defaultResponse }

func (bm *BestMatch) CanProcess(*models.Statement) bool { return true }

func (bm *BestMatch) Process(ctx context.Context, input *models.Statement) (*models.Statement, error) {
	closest, err := bm.search(ctx, input)
	if err != nil {
		return nil, err
	}
	bm.logger.Debug(
		"closest match",
		zap.String("input", input.Text),
		zap.String("match", closest.Text),
		zap.Float64("confidence", closest.Confidence),
	)

	responses, err := bm.responsesTo(ctx, closest.SearchText)
	if err != nil {
		return nil, err
	}
	if len(responses) > 0 {
		response, err := bm.selectResponse(ctx, input, responses, bm.store)
		if err != nil {
			return nil, err
		}
		response.Confidence = closest.Confidence
		return response, nil
	}

	// Nothing answers the closest match; try answers to the input itself.
	alternates, err := bm.responsesTo(ctx, input.SearchText)
	if err != nil {
		return nil, err
	}
	if len(alternates) > 0 {
		response, err := bm.selectResponse(ctx, input, alternates, bm.store)
		if err != nil {
			return nil, err
		}
		response.Confidence = 0
		return response, nil
	}

	bm.logger.Debug("no known response", zap.String("input", input.Text))
	return &models.Statement{Text: bm.defaultResponse, Confidence: 0}, nil
}

// responsesTo returns the stored statements answering searchText.
// An empty searchText answers nothing; as a filter it would match everything.
func (bm *BestMatch) responsesTo(ctx context.Context, searchText string) ([]*models.Statement, error) {
	if searchText == "" {
		return nil, nil
	}
	responses, err := bm.store.Filter(ctx, repository.Query{
		SearchInResponseTo: searchText,
		ExcludeText:        bm.excludedWords,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	return responses, nil
}

// search returns the known statement most similar to input, or input itself
// with zero confidence when no candidate shares a search word.
func (bm *BestMatch) search(ctx context.Context, input *models.Statement) (*models.Statement, error) {
	closest := &models.Statement{
		Text:       input.Text,
		SearchText: input.SearchText,
	}
	if input.SearchText == "" {
		return closest, nil
	}

	candidates, err := bm.store.Filter(ctx, repository.Query{
		SearchTextContains: input.SearchText,
		PersonaNotPrefix:   models.BotPersonaPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search statements: %w", err)
	}

	for _, c := range candidates {
		confidence := bm.compare(input, c)
		if confidence > closest.Confidence {
			c.Confidence = confidence
			closest = c
			if confidence >= bm.threshold {
				break
			}
		}
	}
	return closest, nil
}
