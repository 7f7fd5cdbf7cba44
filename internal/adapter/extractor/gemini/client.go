// Package gemini calls the external vision model that turns product photos
// into a structured field bag. The adapter owns image resolution, the retry
// budget for overload errors, and response parsing; the extraction rubric
// itself is passed through verbatim.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
	"github.com/mtm-trainworks/listing-engine/internal/platform/logger"
	"github.com/mtm-trainworks/listing-engine/internal/platform/retry"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.5-flash"

	// At most this many images are sent per call; extras are ignored, not
	// an error.
	maxImagesPerCall = 5

	attemptTimeout = 30 * time.Second
)

// APIError is a transport-level failure from the model endpoint. Status
// carries the HTTP code used to classify it as retryable or fatal.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("extractor api error (status %d): %s", e.Status, e.Message)
}

// Retryable reports whether the failure is an overload/rate-limit signal
// worth another attempt. Anything else aborts immediately.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusServiceUnavailable ||
		strings.Contains(strings.ToLower(e.Message), "overloaded")
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	policy     retry.Policy
	logger     *logger.Logger
}

type Option func(*Client)

// WithEndpoint overrides the API base URL (tests point this at a stub).
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = strings.TrimRight(url, "/") }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSleep injects the backoff sleeper, for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.policy.Sleep = sleep }
}

func NewClient(apiKey string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: attemptTimeout},
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		apiKey:     apiKey,
		logger:     log,
		policy: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 1 * time.Second,
			Retryable: func(err error) bool {
				var apiErr *APIError
				return errors.As(err, &apiErr) && apiErr.Retryable()
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze resolves up to five image URLs to inline bytes, calls the model
// once per retry attempt with the fixed rubric, and parses the response.
// It returns (nil, nil) only when the input is empty or no image resolved;
// transport exhaustion is a reported error, not a silent nil.
func (c *Client) Analyze(ctx context.Context, imageURLs []string) (*domain.ExtractionResult, error) {
	if len(imageURLs) == 0 {
		return nil, nil
	}
	if len(imageURLs) > maxImagesPerCall {
		imageURLs = imageURLs[:maxImagesPerCall]
	}

	parts := []requestPart{{Text: analysisPrompt}}
	resolved := 0
	for _, url := range imageURLs {
		inline, err := c.resolveImage(ctx, url)
		if err != nil {
			c.logger.Warn("skipping unresolvable image", "error", err)
			continue
		}
		parts = append(parts, requestPart{InlineData: inline})
		resolved++
	}
	if resolved == 0 {
		return nil, nil
	}

	var text string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		text, callErr = c.generateContent(ctx, parts)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed after retries: %w", err)
	}

	analysis, parseErr := ParseAnalysis(text)
	if parseErr != nil {
		c.logger.Warn("extractor returned unparseable content", "error", parseErr)
		return &domain.ExtractionResult{Raw: text, ParseFailed: true}, nil
	}
	return &domain.ExtractionResult{Analysis: analysis, Raw: text}, nil
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []requestPart `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var dataURIPattern = regexp.MustCompile(`^data:(.+?);base64,(.+)$`)

// resolveImage turns a staged-image URL into inline bytes: data URIs pass
// through, remote URLs are fetched and tagged with the observed content type.
func (c *Client) resolveImage(ctx context.Context, url string) (*inlineData, error) {
	if matches := dataURIPattern.FindStringSubmatch(url); matches != nil {
		return &inlineData{MIMEType: matches[1], Data: matches[2]}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &inlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(body),
	}, nil
}

func (c *Client) generateContent(ctx context.Context, parts []requestPart) (string, error) {
	var reqBody generateRequest
	reqBody.Contents = append(reqBody.Contents, struct {
		Parts []requestPart `json:"parts"`
	}{Parts: parts})

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extractor transport error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		var decoded generateResponse
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("malformed extractor response envelope: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", &APIError{Status: resp.StatusCode, Message: "empty candidates in response"}
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
