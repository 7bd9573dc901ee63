// Package ai asks an OpenAI-compatible chat completion endpoint for a short
// plan for a task. It always answers with text the UI can show.
package ai

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

	"studyflow/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"

	placeholderKey = "your_openai_api_key_here"
	maxTokens      = 500
	temperature    = 0.7
	maxAttempts    = 3

	MsgNotConfigured   = "Для использования AI-решений необходимо настроить OPENAI_API_KEY в файле .env"
	MsgConnectionError = "Ой, ошибка подключения к AI!"
	MsgEmptyAnswer     = "Не удалось сгенерировать решение"

	systemPrompt = "Ты - умный помощник для студентов, который помогает планировать и решать учебные задачи."
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// RetryInterval is the first backoff delay; it doubles on each retry.
	RetryInterval time.Duration
	HTTPClient    *http.Client
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Configured reports whether a real API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.APIKey != placeholderKey
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Prompt builds the user message for a task.
func Prompt(title, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ты - помощник для студентов. Тебе дана задача: \"%s\"", title)
	if notes != "" {
		fmt.Fprintf(&b, "\n\nДополнительная информация: %s", notes)
	}
	b.WriteString("\n\nПредложи краткое решение или план действий для выполнения этой задачи. Ответь на русском языке, будь кратким и конкретным.")
	return b.String()
}

// Suggest returns a suggested solution, or one of the fallback messages.
func (c *Client) Suggest(ctx context.Context, title, notes string) string {
	if !c.Configured() {
		return MsgNotConfigured
	}

	answer, err := c.complete(ctx, Prompt(title, notes))
	if err != nil {
		logger.ErrorLogger.Error("AI completion failed", zap.String("title", title), zap.Error(err))
		return MsgConnectionError
	}
	if strings.TrimSpace(answer) == "" {
		return MsgEmptyAnswer
	}
	return answer
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	var answer string
	operation := func() error {
		out, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		answer = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)
	notify := func(err error, wait time.Duration) {
		logger.SystemLogger.Warn("Retrying AI request", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", err
	}
	return answer, nil
}

// post performs one request. Errors that retrying cannot fix are permanent.
func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", backoff.Permanent(err)
		}
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		err := fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
