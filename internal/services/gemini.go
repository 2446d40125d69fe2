package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"dialog-backend/internal/models"
)

const (
	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultGeminiConfidence = 0.5
)

// A Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiService answers statements the corpus cannot, with a fixed confidence
// so a good corpus match still wins.
type GeminiService struct {
	logger     *zap.Logger
	client     *genai.Client
	generator  Generator
	botName    string
	confidence float64
	rateChan   chan struct{} // Token bucket
}

// GeminiParameters describe how to create a new GeminiService.
type GeminiParameters struct {
	Logger         *zap.Logger
	APIKey         string
	Model          string
	BotName        string
	Confidence     float64
	ConcurrentReqs int
	// Generator replaces the Gemini client when set.
	Generator Generator
}

func NewGeminiService(params *GeminiParameters) (*GeminiService, error) {
	if params.Logger == nil {
		return nil, errors.New("missing logger")
	}
	if params.APIKey == "" && params.Generator == nil {
		return nil, errors.New("missing api key")
	}

	s := &GeminiService{
		logger:     params.Logger,
		generator:  params.Generator,
		botName:    params.BotName,
		confidence: params.Confidence,
	}
	if s.confidence <= 0 {
		s.confidence = DefaultGeminiConfidence
	}

	if s.generator == nil {
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(params.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		modelName := params.Model
		if modelName == "" {
			modelName = DefaultGeminiModel
		}
		model := client.GenerativeModel(modelName)
		model.SetTemperature(0.7)
		model.SetTopP(0.95)

		s.client = client
		s.generator = &geminiGenerator{model: model}
	}

	concurrentReqs := params.ConcurrentReqs
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	s.rateChan = make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		s.rateChan <- struct{}{}
	}

	return s, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiService) Name() string { return "gemini" }

func (s *GeminiService) CanProcess(input *models.Statement) bool {
	return strings.TrimSpace(input.Text) != ""
}

// Process asks Gemini for a short conversational reply to input.
func (s *GeminiService) Process(ctx context.Context, input *models.Statement) (*models.Statement, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	reply, err := s.generator.Generate(ctx, buildReplyPrompt(s.botName, input.Text))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, errors.New("gemini returned an empty reply")
	}

	s.logger.Debug("gemini replied", zap.String("input", input.Text), zap.Int("chars", len(reply)))
	return &models.Statement{Text: reply, Confidence: s.confidence}, nil
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

func buildReplyPrompt(botName, message string) string {
	if botName == "" {
		botName = "a friendly chat bot"
	}
	return fmt.Sprintf(`You are %s. Reply to the user's message in one or two short, friendly sentences.
Do not use markdown.

User: %s`, botName, message)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
