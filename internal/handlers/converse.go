package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dialog-backend/internal/models"
)

// Usage is the body served on the index route.
const Usage = "Looking to chat? Post a JSON with a 'message' key to '/converse'."

// maxBodyBytes caps the size of a converse request body.
const maxBodyBytes = 1 << 20

// Responder produces a reply for a message within a conversation.
type Responder interface {
	GetResponse(ctx context.Context, text, conversation string) (*models.Statement, error)
}

type ConverseHandler struct {
	bot    Responder
	logger *zap.Logger
}

func NewConverseHandler(bot Responder, logger *zap.Logger) *ConverseHandler {
	return &ConverseHandler{
		bot:    bot,
		logger: logger,
	}
}

func (h *ConverseHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Usage)
}

func (h *ConverseHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConverseHandler) Converse(w http.ResponseWriter, r *http.Request) {
	var req models.ConverseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "message" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"message": "must be a string"}, r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"message": "is required"}, r))
		return
	}

	reply, err := h.bot.GetResponse(r.Context(), *req.Message, req.Conversation)
	if err != nil {
		h.logger.Error(
			"failed to get response",
			zap.Error(err),
			zap.String("conversation", req.Conversation),
		)
		writeJSON(w, http.StatusInternalServerError, errorResp("CHATBOT_ERROR", "Failed to generate a reply", r))
		return
	}

	writeJSON(w, http.StatusOK, models.ConverseResponse{
		Reply:        reply.Text,
		Conversation: req.Conversation,
	})
}
