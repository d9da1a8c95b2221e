package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookvoice/internal/language"
	"bookvoice/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultLLMBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

const translationPrompt = `You translate one sentence of a book at a time.
Translate the user's sentence from %s to %s. Keep the meaning, tone and punctuation; do not add commentary.
Respond with JSON only: {"translation": "..."%s}`

const transliterationField = `, "transliteration": "<the translation written in Latin script>"`

// LLMConfig captures the settings needed to reach the chat completion API.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	// Transliterate asks the model for a Latin-script rendering as well.
	Transliterate bool
}

// LLM translates sentences with an OpenRouter-compatible chat API.
type LLM struct {
	cfg        LLMConfig
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the LLM client.
type Option func(*LLM)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *LLM) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the retry count. Non-positive values keep
// the default.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *LLM) {
		if attempts > 0 {
			c.retryMaxAttempts = attempts
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *LLM) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *LLM) {
		c.sleeper = sleeper
	}
}

// NewLLM constructs the client.
func NewLLM(cfg LLMConfig, opts ...Option) *LLM {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLLMBaseURL
	}
	client := &LLM{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type translationPayload struct {
	Translation     string `json:"translation"`
	Transliteration string `json:"transliteration"`
}

// Translate implements Translator.
func (c *LLM) Translate(ctx context.Context, sentence, sourceLanguage, targetLanguage string) (Output, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return Output{}, nil
	}
	if c.cfg.APIKey == "" {
		return Output{}, services.Wrap(services.ErrConfiguration, "translate", "llm", "api key required", nil)
	}
	extra := ""
	if c.cfg.Transliterate {
		extra = transliterationField
	}
	system := fmt.Sprintf(translationPrompt, language.DisplayName(sourceLanguage), language.DisplayName(targetLanguage), extra)
	content, err := c.completeJSON(ctx, system, sentence)
	if err != nil {
		return Output{}, services.Wrap(services.ErrExternalTool, "translate", "llm", "", err)
	}
	var parsed translationPayload
	if err := decodeJSON(content, &parsed); err != nil {
		return Output{}, services.Wrap(services.ErrValidation, "translate", "llm", "parse payload", err)
	}
	parsed.Translation = strings.TrimSpace(parsed.Translation)
	if parsed.Translation == "" {
		return Output{}, services.Wrap(services.ErrValidation, "translate", "llm", "empty translation", nil)
	}
	out := Output{Text: parsed.Translation}
	if c.cfg.Transliterate {
		out.Transliteration = strings.TrimSpace(parsed.Transliteration)
	}
	return out, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatReply `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta        chatReply `json:"delta"`
		Text         string    `json:"text"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatReply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("llm translate: empty content (finish_reason=%q, refusal=%q)", e.FinishReason, e.Refusal)
}

func (c *LLM) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	attempts := max(c.retryMaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.send(ctx, payload)
		if err == nil {
			content, reason, refusal := replyContent(resp)
			if content != "" {
				return content, nil
			}
			err = &emptyContentError{FinishReason: reason, Refusal: refusal}
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func replyContent(resp chatResponse) (content, finishReason, refusal string) {
	for _, choice := range resp.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal + choice.Delta.Refusal)
		}
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if trimmed := strings.TrimSpace(candidate); trimmed != "" {
				return trimmed, finishReason, refusal
			}
		}
	}
	return "", finishReason, refusal
}

func (c *LLM) send(ctx context.Context, payload chatRequest) (chatResponse, error) {
	var out chatResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return out, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return out, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("llm request: decode response: %w", err)
	}
	if out.Error != nil {
		return out, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, nil
}
