package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tactile/internal/braille"
)

const defaultHTTPTimeout = 60 * time.Second

const literalPrompt = "You are a Braille translator. Convert the user's text into Unicode braille " +
	"cells (U+2800 through U+28FF). Respond with the braille cells only, no explanations " +
	"and no characters outside the braille range."

const optimizedPrompt = "You are a Braille translator. Take the following English text and return a " +
	"simplified, Grade 1 Braille-optimized version. Keep it concise, literal, and semantically " +
	"accurate. Avoid emojis and non-verbal characters. Respond with the simplified text only."

// Config captures the runtime settings required to talk to the transform LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps a chat-completions API as the primary text transform service.
// Degradation on failure is the FallbackConverter's job, so every method makes
// a single attempt and reports errors verbatim.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transform client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transform sends text through the chat completion endpoint using the
// mode-specific system prompt.
func (c *Client) Transform(ctx context.Context, text string, mode braille.Mode) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("transform: text required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("transform: api key required")
	}

	system := optimizedPrompt
	if mode == braille.ModeLiteral {
		system = literalPrompt
	}
	return c.complete(ctx, system, text)
}

// HealthCheck issues a minimal completion to verify the API key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("transform health: api key required")
	}
	content, err := c.complete(ctx, "Respond with the single word: ok", "ping")
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("transform health: empty response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.3,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("transform request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("transform request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transform request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transform request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("transform request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("transform request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("transform request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", errors.New("transform request: empty completion")
}

func (c *Client) endpoint() string {
	if c.cfg.BaseURL == "" {
		return "https://openrouter.ai/api/v1/chat/completions"
	}
	return c.cfg.BaseURL
}
