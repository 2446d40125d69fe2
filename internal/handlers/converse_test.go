package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"dialog-backend/internal/chatbot"
	"dialog-backend/internal/models"
	"dialog-backend/internal/repository"
)

type fakeResponder struct {
	reply        string
	err          error
	text         string
	conversation string
	calls        int
}

func (f *fakeResponder) GetResponse(_ context.Context, text, conversation string) (*models.Statement, error) {
	f.calls++
	f.text = text
	f.conversation = conversation
	if f.err != nil {
		return nil, f.err
	}
	return &models.Statement{Text: f.reply}, nil
}

func TestIndex_ReturnsUsage(t *testing.T) {
	h := NewConverseHandler(&fakeResponder{}, zap.NewNop())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if rr.Body.String() != Usage {
			t.Errorf("Expected usage string, got %q", rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Expected text/plain content type, got %q", ct)
		}
	}
}

func TestHealth(t *testing.T) {
	h := NewConverseHandler(&fakeResponder{}, zap.NewNop())
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Errorf("Unexpected body %q", rr.Body.String())
	}
}

func TestConverse_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing message", `{}`, "message"},
		{"null message", `{"message": null}`, "message"},
		{"empty message", `{"message": ""}`, "message"},
		{"whitespace message", `{"message": "   "}`, "message"},
		{"numeric message", `{"message": 42}`, "message"},
		{"malformed json", `{"message": `, ""},
		{"not an object", `["hello"]`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bot := &fakeResponder{reply: "Hi"}
			h := NewConverseHandler(bot, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/converse", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-ID", "req-1")
			rr := httptest.NewRecorder()

			h.Converse(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rr.Code)
			}
			if bot.calls != 0 {
				t.Errorf("Expected chatbot not to be called, got %d calls", bot.calls)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
			}
			if resp.Error.RequestID != "req-1" {
				t.Errorf("Expected request id 'req-1', got %q", resp.Error.RequestID)
			}
			if tc.wantField != "" {
				if _, ok := resp.Error.Fields[tc.wantField]; !ok {
					t.Errorf("Expected field error for %q, got %v", tc.wantField, resp.Error.Fields)
				}
			}
		})
	}
}

func TestConverse_ReturnsReply(t *testing.T) {
	bot := &fakeResponder{reply: "Hi there"}
	h := NewConverseHandler(bot, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/converse",
		strings.NewReader(`{"message": "hello", "conversation": "c-42"}`))
	rr := httptest.NewRecorder()

	h.Converse(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.ConverseResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Reply != "Hi there" {
		t.Errorf("Expected reply 'Hi there', got %q", resp.Reply)
	}
	if resp.Conversation != "c-42" {
		t.Errorf("Expected conversation to be echoed, got %q", resp.Conversation)
	}
	if bot.text != "hello" || bot.conversation != "c-42" {
		t.Errorf("Unexpected call: text=%q conversation=%q", bot.text, bot.conversation)
	}
}

func TestConverse_ChatbotError(t *testing.T) {
	h := NewConverseHandler(&fakeResponder{err: errors.New("store down")}, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Converse(rr, httptest.NewRequest(http.MethodPost, "/converse", strings.NewReader(`{"message": "hello"}`)))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if resp.Error.Code != "CHATBOT_ERROR" {
		t.Errorf("Expected CHATBOT_ERROR, got %q", resp.Error.Code)
	}
	if strings.Contains(resp.Error.Message, "store down") {
		t.Error("Expected internal error details not to leak")
	}
}

func TestConverse_TrainedChatbot(t *testing.T) {
	bot, err := chatbot.New(&chatbot.Parameters{
		Name:   "Chatterbot",
		Logger: zap.NewNop(),
		Store:  repository.NewMemoryStatementRepo(),
	})
	if err != nil {
		t.Fatalf("Failed to create bot: %v", err)
	}
	trainer, err := chatbot.NewTrainer(bot)
	if err != nil {
		t.Fatalf("Failed to create trainer: %v", err)
	}
	if err := trainer.TrainList(context.Background(), []string{"Hello", "Hi"}); err != nil {
		t.Fatalf("Failed to train: %v", err)
	}

	h := NewConverseHandler(bot, zap.NewNop())

	tests := []struct {
		message string
		want    string
	}{
		{"hello", "Hi"},
		{"Quantum chromodynamics", chatbot.DefaultResponseText},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"message": tc.message})
			rr := httptest.NewRecorder()
			h.Converse(rr, httptest.NewRequest(http.MethodPost, "/converse", strings.NewReader(string(body))))

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var resp models.ConverseResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Reply != tc.want {
				t.Errorf("Expected reply %q, got %q", tc.want, resp.Reply)
			}
		})
	}
}
