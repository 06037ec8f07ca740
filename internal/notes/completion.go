// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/note-engine/pkg/types"
)

// CompletionError reports a violated calling contract: a missing
// client, image, or prompt. It is raised before any network call is
// attempted and is distinct from model or transport failures.
type CompletionError struct {
	Reason string
}

func (e *CompletionError) Error() string {
	return "completion: " + e.Reason
}

// Completer abstracts the model completion API so tests can supply a
// mock. Image completions carry the image as base64; text completions
// carry plain text. Both run under a system prompt.
type Completer interface {
	ImageCompletion(ctx context.Context, imageBase64, systemPrompt string, temperature float64) (string, error)
	TextCompletion(ctx context.Context, text, systemPrompt string, temperature float64) (string, error)
}

// Client calls an OpenAI-style chat completions endpoint.
type Client struct {
	cfg        types.CompletionConfig
	httpClient *http.Client
}

// NewClient validates cfg and returns a completion client. A missing
// API key or endpoint is a fatal precondition, not a per-call error.
func NewClient(cfg types.CompletionConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing model API key")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing model endpoint URL")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("missing model identifier")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Chat completions wire structures.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// ImageCompletion runs one completion whose user content is the image,
// embedded as a base64 data URI.
func (c *Client) ImageCompletion(ctx context.Context, imageBase64, systemPrompt string, temperature float64) (string, error) {
	if imageBase64 == "" {
		return "", &CompletionError{Reason: "encoded image is required"}
	}
	if systemPrompt == "" {
		return "", &CompletionError{Reason: "system prompt is required"}
	}

	user := chatMessage{
		Role: "user",
		Content: []contentPart{{
			Type:     "image_url",
			ImageURL: &imageRef{URL: "data:image/jpeg;base64," + imageBase64},
		}},
	}
	return c.complete(ctx, systemPrompt, user, temperature)
}

// TextCompletion runs one completion over plain text input.
func (c *Client) TextCompletion(ctx context.Context, text, systemPrompt string, temperature float64) (string, error) {
	if text == "" {
		return "", &CompletionError{Reason: "input text is required"}
	}
	if systemPrompt == "" {
		return "", &CompletionError{Reason: "system prompt is required"}
	}

	return c.complete(ctx, systemPrompt, chatMessage{Role: "user", Content: text}, temperature)
}

func (c *Client) complete(ctx context.Context, systemPrompt string, user chatMessage, temperature float64) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			user,
		},
		Temperature: temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("model API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("model API returned no choices")
	}

	return cResp.Choices[0].Message.Content, nil
}
