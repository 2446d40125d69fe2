package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dialog-backend/internal/models"
	"dialog-backend/internal/repository"
)

// A ChatBot answers statements from what it has been trained on and
// learns from every conversation turn unless it is read-only.
// It is safe for concurrent use.
type ChatBot struct {
	name          string
	logger        *zap.Logger
	store         repository.StatementStore
	tagger        Tagger
	adapters      []LogicAdapter
	preprocessors []Preprocessor
	readOnly      bool

	// defaultResponse answers input with nothing left to search on.
	defaultResponse string
}

// Parameters describe how to create a new ChatBot.
type Parameters struct {
	Name   string
	Logger *zap.Logger
	Store  repository.StatementStore
	// Tagger defaults to the part-of-speech tagger.
	Tagger Tagger
	// BestMatch configures the default logic adapter.
	BestMatch BestMatchParameters
	// ExtraAdapters are consulted after BestMatch.
	ExtraAdapters []LogicAdapter
	// Preprocessors default to DefaultPreprocessors.
	Preprocessors []Preprocessor
	ReadOnly      bool
}

func New(params *Parameters) (*ChatBot, error) {
	if params.Name == "" {
		return nil, errors.New("missing name")
	}
	if params.Logger == nil {
		return nil, errors.New("missing logger")
	}
	if params.Store == nil {
		return nil, errors.New("missing statement store")
	}

	tagger := params.Tagger
	if tagger == nil {
		tagger = NewPosTagger()
	}
	preprocessors := params.Preprocessors
	if preprocessors == nil {
		preprocessors = DefaultPreprocessors
	}

	bmParams := params.BestMatch
	bmParams.Logger = params.Logger
	bmParams.Store = params.Store
	bestMatch, err := NewBestMatch(&bmParams)
	if err != nil {
		return nil, err
	}

	adapters := append([]LogicAdapter{bestMatch}, params.ExtraAdapters...)

	return &ChatBot{
		name:          params.Name,
		logger:        params.Logger,
		store:         params.Store,
		tagger:        tagger,
		adapters:      adapters,
		preprocessors: preprocessors,
		readOnly:      params.ReadOnly,

		defaultResponse: bestMatch.DefaultResponse(),
	}, nil
}

// Name returns the bot name.
func (bot *ChatBot) Name() string { return bot.name }

// Persona is the persona stored on the bot's own statements.
func (bot *ChatBot) Persona() string { return models.BotPersonaPrefix + bot.name }

// Store returns the statement store the bot learns into.
func (bot *ChatBot) Store() repository.StatementStore { return bot.store }

// Tagger returns the tagger used to index statements.
func (bot *ChatBot) Tagger() Tagger { return bot.tagger }

// GetResponse answers text within the given conversation.
// conversation may be empty.
func (bot *ChatBot) GetResponse(ctx context.Context, text, conversation string) (*models.Statement, error) {
	text = preprocess(text, bot.preprocessors)
	input := &models.Statement{
		Text:         text,
		SearchText:   bot.tagger.IndexString(text),
		Conversation: conversation,
	}

	// Blank input is answered but never learned.
	if input.Text == "" || strings.TrimSpace(input.SearchText) == "" {
		bot.logger.Debug(
			"nothing to search on",
			zap.String("conversation", conversation),
		)
		return &models.Statement{
			Text:         bot.defaultResponse,
			Conversation: conversation,
			Persona:      bot.Persona(),
			Confidence:   0,
		}, nil
	}

	result, err := bot.generateResponse(ctx, input)
	if err != nil {
		return nil, err
	}

	response := &models.Statement{
		Text:               result.Text,
		SearchText:         bot.tagger.IndexString(result.Text),
		Conversation:       conversation,
		Persona:            bot.Persona(),
		InResponseTo:       input.Text,
		SearchInResponseTo: input.SearchText,
		Confidence:         result.Confidence,
	}

	if !bot.readOnly {
		if err := bot.learnResponse(ctx, input); err != nil {
			return nil, err
		}
		if err := bot.store.Create(ctx, response); err != nil {
			return nil, fmt.Errorf("failed to store response: %w", err)
		}
	}

	bot.logger.Debug(
		"generated response",
		zap.String("input", input.Text),
		zap.String("reply", response.Text),
		zap.Float64("confidence", response.Confidence),
		zap.String("conversation", conversation),
	)
	return response, nil
}

// generateResponse asks every adapter able to process input and keeps the
// most confident answer. Ties keep the earlier adapter. An adapter failure
// only fails the call when no adapter answered.
func (bot *ChatBot) generateResponse(ctx context.Context, input *models.Statement) (*models.Statement, error) {
	var best *models.Statement
	var firstErr error

	for _, adapter := range bot.adapters {
		if !adapter.CanProcess(input) {
			continue
		}
		out, err := adapter.Process(ctx, input)
		if err != nil {
			bot.logger.Warn(
				"logic adapter failed",
				zap.String("adapter", adapter.Name()),
				zap.String("err", err.Error()),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", adapter.Name(), err)
			}
			continue
		}
		bot.logger.Debug(
			"logic adapter answered",
			zap.String("adapter", adapter.Name()),
			zap.String("reply", out.Text),
			zap.Float64("confidence", out.Confidence),
		)
		if best == nil || out.Confidence > best.Confidence {
			best = out
		}
	}

	if best == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, errors.New("no logic adapter could process the input")
	}
	return best, nil
}

// learnResponse stores input in response to the bot's previous reply in
// the same conversation. Inputs outside a conversation are stored unlinked.
func (bot *ChatBot) learnResponse(ctx context.Context, input *models.Statement) error {
	learned := &models.Statement{
		Text:         input.Text,
		SearchText:   input.SearchText,
		Conversation: input.Conversation,
	}

	if strings.TrimSpace(input.Conversation) != "" {
		previous, err := bot.store.LatestResponse(ctx, input.Conversation)
		switch {
		case err == nil:
			learned.InResponseTo = previous.Text
			learned.SearchInResponseTo = previous.SearchText
		case repository.IsNotFound(err):
		default:
			return fmt.Errorf("failed to load previous response: %w", err)
		}
	}

	if err := bot.store.Create(ctx, learned); err != nil {
		return fmt.Errorf("failed to learn input: %w", err)
	}
	bot.logger.Debug(
		"learned input",
		zap.String("text", learned.Text),
		zap.String("inResponseTo", learned.InResponseTo),
	)
	return nil
}
