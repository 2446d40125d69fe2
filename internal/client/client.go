// Package client talks to a running dialog server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialog-backend/internal/models"
)

// DefaultBaseURL is where the server listens by default.
const DefaultBaseURL = "http://localhost:5000"

// A Client posts messages to the converse endpoint.
type Client struct {
	logger       *zap.Logger
	baseURL      string
	token        string
	conversation string
	httpClient   *http.Client
}

// Parameters describe how to create a new Client.
type Parameters struct {
	Logger  *zap.Logger
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Conversation links consecutive messages on the server.
	Conversation string
	HTTPClient   *http.Client
}

// An APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("converse failed with status %d", e.Status)
	}
	return fmt.Sprintf("converse failed with status %d: %s: %s", e.Status, e.Code, e.Message)
}

func New(params *Parameters) (*Client, error) {
	if params.Logger == nil {
		return nil, errors.New("missing logger")
	}
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		logger:       params.Logger,
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        params.Token,
		conversation: params.Conversation,
		httpClient:   httpClient,
	}, nil
}

// Converse sends message and returns the reply.
func (c *Client) Converse(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(models.ConverseRequest{
		Message:      &message,
		Conversation: c.conversation,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/converse", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
			apiErr.RequestID = errResp.Error.RequestID
		}
		c.logger.Debug(
			"converse request failed",
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code),
			zap.String("requestId", apiErr.RequestID),
		)
		return "", apiErr
	}

	var decoded models.ConverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode reply: %w", err)
	}
	return decoded.Reply, nil
}
