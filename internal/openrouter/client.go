// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultChatURL is the chat completions endpoint.
	DefaultChatURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultModelsURL is the model listing endpoint.
	DefaultModelsURL = "https://openrouter.ai/api/v1/models"

	// DefaultTimeout bounds each request, including streaming reads.
	DefaultTimeout = 45 * time.Second

	// DefaultMaxRetries is the retry count for transient errors on
	// blocking requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize caps response bodies. The full OpenRouter model
	// listing runs to a few megabytes.
	MaxResponseSize = 10 * 1024 * 1024

	// userAgent identifies cli-gpt to the API.
	userAgent = "cli-gpt/0.3.0"
)

var (
	// sharedHTTPClient serves blocking requests with connection pooling.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves SSE requests. No client timeout;
	// lifetimes are controlled through the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingAPIKey indicates no API key is configured.
	ErrMissingAPIKey = errors.New("OpenRouter API key not configured")

	// ErrAuthFailed indicates the API rejected the key (HTTP 401).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInsufficientCredits indicates the account balance is exhausted
	// (HTTP 402).
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrModelNotFound indicates the requested model does not exist
	// (HTTP 404).
	ErrModelNotFound = errors.New("model not found")

	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents a structured error returned by the OpenRouter API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenRouter error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenRouter error (HTTP %d): %s", e.Status, e.Message)
}

// RateLimitError is a rate limit response carrying the server's
// suggested retry delay, when one was provided.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	if e.Message != "" {
		return "rate limited: " + e.Message
	}
	return "rate limited"
}

// Is allows RateLimitError to match ErrRateLimited in errors.Is checks.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Pricing represents per-token pricing for a model. OpenRouter returns
// these as decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ModelInfo represents one model from the listing endpoint.
type ModelInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ContextLength int     `json:"context_length"`
	Pricing       Pricing `json:"pricing"`
}

// modelsResponse is the wire structure of the model listing.
type modelsResponse struct {
	Data []struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		ContextLength int      `json:"context_length"`
		Pricing       *Pricing `json:"pricing"`
	} `json:"data"`
}

// apiErrorResponse is the wire structure of an API error body. Some
// error paths put the message at the top level instead of under
// "error".
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// message returns the most specific message present.
func (r *apiErrorResponse) message() string {
	if r.Error.Message != "" {
		return r.Error.Message
	}
	return r.Message
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the OpenRouter API.
type Client struct {
	apiKey     string
	chatURL    string
	modelsURL  string
	model      string
	maxRetries int
	timeout    time.Duration
	appTitle   string
	appReferer string

	// limiter keeps request bursts polite toward the free tier.
	limiter *rate.Limiter

	debug bool
}

// NewClient creates a client with the given API key.
//
// Keys are issued by OpenRouter in the form "sk-or-...". An empty key
// still yields a usable client for the unauthenticated model listing;
// chat requests will fail with ErrMissingAPIKey.
func NewClient(apiKey string) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		chatURL:    DefaultChatURL,
		modelsURL:  DefaultModelsURL,
		model:      "openrouter/auto",
		maxRetries: DefaultMaxRetries,
		timeout:    DefaultTimeout,
		// 20 requests per minute with a small burst.
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 3),
		debug:   debugEnabled(),
	}
	if c.debug {
		log.Printf("openrouter: client configured, key=%s", c.APIKeyMasked())
	}
	return c
}

// debugEnabled reports whether request logging was requested.
func debugEnabled() bool {
	v := os.Getenv("CLI_GPT_DEBUG")
	return v == "1" || strings.ToLower(v) == "true"
}

// WithChatURL sets a custom chat completions endpoint.
func (c *Client) WithChatURL(url string) *Client {
	if url != "" {
		c.chatURL = url
	}
	return c
}

// WithModelsURL sets a custom model listing endpoint.
func (c *Client) WithModelsURL(url string) *Client {
	if url != "" {
		c.modelsURL = url
	}
	return c
}

// WithTimeout sets the per-request timeout. Zero or negative disables
// the client-imposed deadline.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithMaxRetries sets the maximum number of retry attempts for
// blocking requests.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithAppTitle sets the X-Title attribution header value.
func (c *Client) WithAppTitle(title string) *Client {
	c.appTitle = title
	return c
}

// WithAppReferer sets the HTTP-Referer attribution header value.
func (c *Client) WithAppReferer(referer string) *Client {
	c.appReferer = referer
	return c
}

// SetModel sets the model used for chat requests.
func (c *Client) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *Client) GetModel() string {
	return c.model
}

// IsConfigured returns true if an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a redacted representation of the key for
// display and logs. No fragment of the key itself is ever included.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.apiKey), c.keyFingerprint())
}

// keyFingerprint returns a short SHA-256 fingerprint of the key.
func (c *Client) keyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// REQUEST LOGGING
// =============================================================================

// logRequest logs an API request. Headers and bodies stay out of the
// log; the former carry auth, the latter conversation content.
func (c *Client) logRequest(req *http.Request) {
	if !c.debug {
		return
	}
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	if !c.debug {
		return
	}
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// =============================================================================
// HEADERS
// =============================================================================

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.appReferer != "" {
		req.Header.Set("HTTP-Referer", c.appReferer)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}
}

// =============================================================================
// BLOCKING CHAT
// =============================================================================

// Chat performs a blocking chat completion request with the current
// model, retrying transient failures with exponential backoff.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrMissingAPIKey
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}

	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := c.doRequest(ctx, reqBody)
		if err != nil {
			if c.isRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		return response, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return nil, errors.New("max retries exceeded")
}

// ChatWithModel performs a chat completion with a specific model
// without touching the client's model field, so it is safe to call
// concurrently.
func (c *Client) ChatWithModel(ctx context.Context, model string, messages []ChatMessage) (*ChatResponse, error) {
	clientCopy := *c
	clientCopy.SetModel(model)
	return clientCopy.Chat(ctx, messages)
}

// readResponse reads a response body under the size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// doRequest performs a single blocking request to the chat endpoint.
func (c *Client) doRequest(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	c.logRequest(req)

	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)

	// Keep the bearer token out of any later request dumps.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, c.handleRateLimit(resp, body)
		}
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &chatResp, nil
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// handleErrorResponse converts HTTP error responses to Go errors. The
// API's own message is preserved where the body parses.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.message() != "" {
		structured := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.message(),
			Status:  statusCode,
		}

		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, structured.Message)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrInsufficientCredits, structured.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, structured.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, structured.Message)
		default:
			return structured
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Message: string(body),
			Status:  statusCode,
		}
	}
}

// handleRateLimit builds a RateLimitError from a 429 response,
// honoring Retry-After in either seconds or HTTP date form.
func (c *Client) handleRateLimit(resp *http.Response, body []byte) error {
	message := ""
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		message = apiErr.message()
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		if message != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		}
		return ErrRateLimited
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return &RateLimitError{
			RetryAfter: time.Duration(seconds) * time.Second,
			Message:    message,
		}
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return &RateLimitError{
			RetryAfter: time.Until(t),
			Message:    message,
		}
	}

	return ErrRateLimited
}

// isRetryable determines if an error should trigger a retry.
func (c *Client) isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var structured *APIError
	if errors.As(err, &structured) {
		return structured.Status >= 500 && structured.Status < 600
	}

	return false
}

// calculateBackoff returns the delay to wait before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// =============================================================================
// MODEL LISTING
// =============================================================================

// ListModels retrieves the available models. The endpoint does not
// require authentication, but the key is sent when present so
// account-scoped listings work too.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logRequest(req)
	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var listing modelsResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		info := ModelInfo{
			ID:            m.ID,
			Name:          m.Name,
			ContextLength: m.ContextLength,
		}
		if m.Pricing != nil {
			info.Pricing = *m.Pricing
		}
		models = append(models, info)
	}

	return models, nil
}

// =============================================================================
// KEY FORMAT CHECK
// =============================================================================

// ValidateAPIKey checks whether a key looks like an OpenRouter key.
// This is a format check only; the API is the judge of validity.
func ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)

	if !strings.HasPrefix(apiKey, "sk-or-") {
		return false
	}

	if len(apiKey) < 38 {
		return false
	}

	// Obvious placeholder keys like "sk-or-aaaa..." fail an entropy
	// check on the material after the prefix.
	uniqueChars := make(map[rune]bool)
	for _, char := range apiKey[6:] {
		uniqueChars[char] = true
	}

	return len(uniqueChars) >= 10
}
