package chatbot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dialog-backend/internal/corpus"
	"dialog-backend/internal/models"
	"dialog-backend/internal/repository"
)

// A Trainer stores example conversations so the bot can answer from them.
type Trainer struct {
	bot    *ChatBot
	logger *zap.Logger
}

func NewTrainer(bot *ChatBot) (*Trainer, error) {
	if bot == nil {
		return nil, errors.New("missing chatbot")
	}
	return &Trainer{
		bot:    bot,
		logger: bot.logger,
	}, nil
}

// TrainCorpus stores every conversation of every corpus as a chain of
// statements, each in response to the line before it. Statements of one
// corpus are indexed concurrently with the others and written in one batch.
func (t *Trainer) TrainCorpus(ctx context.Context, corpora ...corpus.Corpus) error {
	batches := make([][]*models.Statement, len(corpora))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range corpora {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batches[i] = t.statements(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, batch := range batches {
		if err := t.bot.store.CreateMany(ctx, batch); err != nil {
			return fmt.Errorf("failed to store corpus %s: %w", corpora[i].Name, err)
		}
		t.logger.Debug(
			"trained corpus",
			zap.String("corpus", corpora[i].Name),
			zap.Int("statements", len(batch)),
		)
	}
	return nil
}

// TrainIfEmpty trains corpora unless the store already holds training
// statements. With force the store is dropped and trained again.
// It reports whether training ran.
func (t *Trainer) TrainIfEmpty(ctx context.Context, force bool, corpora ...corpus.Corpus) (bool, error) {
	if force {
		if err := t.bot.store.Drop(ctx); err != nil {
			return false, fmt.Errorf("failed to drop statements: %w", err)
		}
	} else {
		n, err := t.bot.store.Count(ctx, repository.Query{Conversation: models.TrainingConversation})
		if err != nil {
			return false, fmt.Errorf("failed to count training statements: %w", err)
		}
		if n > 0 {
			t.logger.Info("skipping training, store already trained", zap.Int("statements", n))
			return false, nil
		}
	}

	if err := t.TrainCorpus(ctx, corpora...); err != nil {
		return false, err
	}
	return true, nil
}

// TrainList trains a single conversation given as consecutive lines.
func (t *Trainer) TrainList(ctx context.Context, lines []string) error {
	return t.TrainCorpus(ctx, corpus.Corpus{
		Name:          "list",
		Conversations: [][]string{lines},
	})
}

func (t *Trainer) statements(c corpus.Corpus) []*models.Statement {
	var out []*models.Statement
	// Microsecond steps keep corpus order stable in stores with coarse timestamps.
	created := time.Now().UTC()
	for _, conv := range c.Conversations {
		var previous *models.Statement
		for _, line := range conv {
			text := preprocess(line, t.bot.preprocessors)
			s := &models.Statement{
				Text:         text,
				SearchText:   t.bot.tagger.IndexString(text),
				Conversation: models.TrainingConversation,
				Tags:         c.Categories,
				CreatedAt:    created,
			}
			created = created.Add(time.Microsecond)
			if previous != nil {
				s.InResponseTo = previous.Text
				s.SearchInResponseTo = previous.SearchText
			}
			out = append(out, s)
			previous = s
		}
	}
	return out
}
