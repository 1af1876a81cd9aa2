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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Config holds API settings for the text-embedding provider (OpenAI-compatible).
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int // expected vector size; 0 disables the check

	Timeout           time.Duration
	MaxRetries        uint64
	RequestsPerSecond float64 // 0 = no client-side rate limit
}

// Client calls the /embeddings endpoint of an OpenAI-compatible provider.
// It is stateless and safe for concurrent use; transient failures (429, 5xx,
// network) are retried with bounded exponential backoff.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxRetries uint64

	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// Model returns the configured embedding model identifier.
func (c *Client) Model() string {
	return c.model
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	vectors, err := c.request(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding in provider response")
	}
	return vectors[0], nil
}

// EmbedBatch returns embeddings for multiple texts in input order. Blank texts
// are rejected rather than silently skipped so the result aligns with the input.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, ErrEmptyInput
		}
	}
	vectors, err := c.request(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *Client) request(ctx context.Context, input any) ([][]float32, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"input": input,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	operation := func() ([][]float32, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		vectors, err := c.doRequest(ctx, body)
		if err != nil {
			var provErr *ProviderError
			if errors.As(err, &provErr) && !provErr.Transient() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return vectors, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	return backoff.RetryWithData(operation, policy)
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		if c.dimensions > 0 && len(parsed.Data[i].Embedding) != c.dimensions {
			return nil, fmt.Errorf("provider returned %d-dim vector, want %d", len(parsed.Data[i].Embedding), c.dimensions)
		}
		vectors[i] = parsed.Data[i].Embedding
	}
	return vectors, nil
}
