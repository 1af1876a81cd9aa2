package qdrant

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
)

// ErrUnavailable marks failures to reach the vector index at all.
var ErrUnavailable = errors.New("vector index unavailable")

// APIError reports a non-2xx response from Qdrant.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.Status, e.Body)
}

func (e *APIError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client is a REST client to a Qdrant collection. It assumes cosine distance
// and carries the collection name so callers never repeat it.
type Client struct {
	url        string
	apiKey     string
	collection string
	maxRetries uint64
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Collection returns the configured collection name.
func (c *Client) Collection() string {
	return c.collection
}

// Filter is a conjunctive payload filter.
type Filter struct {
	Must []Condition `json:"must,omitempty"`
}

type Condition struct {
	Key   string `json:"key"`
	Match Match  `json:"match"`
}

type Match struct {
	Value any      `json:"value,omitempty"`
	Any   []string `json:"any,omitempty"`
}

// MatchValue matches payloads whose key equals value.
func MatchValue(key string, value any) Condition {
	return Condition{Key: key, Match: Match{Value: value}}
}

// MatchAny matches payloads whose key (a set) contains any of the values.
func MatchAny(key string, values ...string) Condition {
	return Condition{Key: key, Match: Match{Any: values}}
}

// Point is one vector-index entry to upsert.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload any       `json:"payload"`
}

// ScoredPoint is a nearest-neighbor hit. The payload stays raw so the caller
// decodes it into its own typed shape.
type ScoredPoint struct {
	ID      any             `json:"id"`
	Score   float64         `json:"score"`
	Payload json.RawMessage `json:"payload"`
}

// ScrolledPoint is one record from a paginated full scan.
type ScrolledPoint struct {
	ID      any             `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Healthz probes the readiness endpoint once, without retries, so health
// checks stay fast when the index is down.
func (c *Client) Healthz(ctx context.Context) error {
	return c.doOnce(ctx, http.MethodGet, "/readyz", nil, nil)
}

// EnsureCollection makes sure the collection exists with the given
// dimensionality and cosine distance. With recreate set, an existing
// collection is dropped first; otherwise an existing collection is left
// untouched.
func (c *Client) EnsureCollection(ctx context.Context, dimension int, recreate bool) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	path := "/collections/" + c.collection
	if recreate {
		if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
				return err
			}
		}
	} else {
		err := c.doJSON(ctx, http.MethodGet, path, nil, nil)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			return err
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return c.doJSON(ctx, http.MethodPut, path, body, nil)
}

// UpsertPoints writes points by ID, overwriting existing ones. The call waits
// for the write to be applied so a following search sees it.
func (c *Client) UpsertPoints(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	return c.doJSON(ctx, http.MethodPut, path, body, nil)
}

// DeletePoints removes points by ID; missing IDs are a no-op.
func (c *Client) DeletePoints(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"points": ids}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collection)
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

// Search runs a filtered top-k nearest-neighbor query and returns hits in
// descending similarity order with their payloads.
func (c *Client) Search(ctx context.Context, vector []float32, filter *Filter, limit int) ([]ScoredPoint, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil && len(filter.Must) > 0 {
		body["filter"] = filter
	}

	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Scroll fetches one page of the collection starting at offset (nil for the
// first page) and returns the next offset, or nil once the index reports the
// scan is complete.
func (c *Client) Scroll(ctx context.Context, limit int, offset json.RawMessage) ([]ScrolledPoint, json.RawMessage, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if len(offset) > 0 {
		body["offset"] = offset
	}

	var resp struct {
		Result struct {
			Points         []ScrolledPoint `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/scroll", c.collection)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, nil, err
	}

	next := resp.Result.NextPageOffset
	if len(next) == 0 || bytes.Equal(next, []byte("null")) {
		next = nil
	}
	return resp.Result.Points, next, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal qdrant request failed: %w", err)
		}
	}

	operation := func() error {
		err := c.doOnce(ctx, method, path, payload, out)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Transient() {
				return backoff.Permanent(err)
			}
		}
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	return backoff.Retry(operation, policy)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("build qdrant request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read qdrant response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse qdrant response failed: %w", err)
		}
	}
	return nil
}
