package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"medication-agent/internal/label"
	"medication-agent/internal/model"
	"medication-agent/internal/platform/qdrant"
)

// ErrValidation marks malformed search input, reported before any network
// call is attempted.
var ErrValidation = errors.New("invalid search input")

const (
	// DefaultK is the result count when the caller does not ask for one.
	DefaultK = 8
	// maxK bounds caller-supplied result counts.
	maxK = 50
	// scrollPageSize is the page size for metadata enumeration scans.
	scrollPageSize = 100
)

// Embedder turns the query text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, filter *qdrant.Filter, limit int) ([]qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, limit int, offset json.RawMessage) ([]qdrant.ScrolledPoint, json.RawMessage, error)
}

// EnumCache fronts the expensive full-index enumeration scans. Implementations
// may be nil-backed; the service works without one.
type EnumCache interface {
	Get(ctx context.Context, field string) ([]string, bool, error)
	Set(ctx context.Context, field string, values []string) error
}

// Params is one search request. Zero-valued filters are omitted.
type Params struct {
	Query      string
	Section    string
	Alias      string
	Ingredient string
	K          int
}

// Result is one ranked hit with its denormalized metadata.
type Result struct {
	Score       float64  `json:"score"`
	ItemSeq     string   `json:"item_seq"`
	Section     string   `json:"section"`
	PartIdx     int      `json:"part_idx"`
	ItemName    string   `json:"item_name"`
	EntpName    string   `json:"entp_name"`
	Aliases     []string `json:"aliases"`
	Ingredients []string `json:"ingredients"`
	IsOTC       bool     `json:"is_otc"`
	UpdateDe    string   `json:"update_de"`
	Text        string   `json:"text"`
}

// Response is the search output: ranked results, best first.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// Service performs filtered semantic search and metadata enumeration against
// the embedding-point collection. It is stateless across requests.
type Service struct {
	embedder Embedder
	index    VectorSearcher
	cache    EnumCache
}

// NewService wires the search service; cache may be nil.
func NewService(embedder Embedder, index VectorSearcher, cache EnumCache) *Service {
	return &Service{embedder: embedder, index: index, cache: cache}
}

// Search embeds the query and runs a filtered top-k nearest-neighbor search.
// Embedding and index failures propagate untouched; an empty result set is
// not an error.
func (s *Service) Search(ctx context.Context, params Params) (*Response, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrValidation)
	}
	if params.K <= 0 {
		return nil, fmt.Errorf("%w: k must be a positive integer, got %d", ErrValidation, params.K)
	}
	k := params.K
	if k > maxK {
		k = maxK
	}

	filter, err := buildFilter(params)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(ctx, vector, filter, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		var payload model.ChunkPayload
		if err := json.Unmarshal(hit.Payload, &payload); err != nil {
			log.Printf("search: skipping point %v with malformed payload: %v", hit.ID, err)
			continue
		}
		results = append(results, Result{
			Score:       hit.Score,
			ItemSeq:     payload.ItemSeq,
			Section:     payload.Section,
			PartIdx:     payload.PartIdx,
			ItemName:    payload.ItemName,
			EntpName:    payload.EntpName,
			Aliases:     payload.Aliases,
			Ingredients: payload.Ingredients,
			IsOTC:       payload.IsOTC,
			UpdateDe:    payload.UpdateDe,
			Text:        payload.Text,
		})
	}
	return &Response{Results: results, Total: len(results)}, nil
}

// buildFilter assembles the conjunctive payload filter; nil means search
// everything.
func buildFilter(params Params) (*qdrant.Filter, error) {
	var filter qdrant.Filter
	if params.Section != "" {
		section, ok := label.ParseSection(params.Section)
		if !ok {
			return nil, fmt.Errorf("%w: unknown section %q", ErrValidation, params.Section)
		}
		filter.Must = append(filter.Must, qdrant.MatchValue("section", section.String()))
	}
	if params.Alias != "" {
		filter.Must = append(filter.Must, qdrant.MatchAny("aliases", params.Alias))
	}
	if params.Ingredient != "" {
		filter.Must = append(filter.Must, qdrant.MatchAny("ingredients", params.Ingredient))
	}
	if len(filter.Must) == 0 {
		return nil, nil
	}
	return &filter, nil
}

// ListAliases returns every alias present in any indexed payload, sorted and
// deduplicated.
func (s *Service) ListAliases(ctx context.Context) ([]string, error) {
	return s.enumerate(ctx, "aliases", func(p *model.ChunkPayload) []string { return p.Aliases })
}

// ListIngredients returns every ingredient present in any indexed payload,
// sorted and deduplicated.
func (s *Service) ListIngredients(ctx context.Context) ([]string, error) {
	return s.enumerate(ctx, "ingredients", func(p *model.ChunkPayload) []string { return p.Ingredients })
}

// enumerate scrolls the whole collection page by page until the index reports
// no next offset. Large corpora are never truncated short of exhaustion.
func (s *Service) enumerate(ctx context.Context, field string, pick func(*model.ChunkPayload) []string) ([]string, error) {
	if s.cache != nil {
		values, ok, err := s.cache.Get(ctx, field)
		if err != nil {
			log.Printf("search: enumeration cache read for %s failed: %v", field, err)
		} else if ok {
			return values, nil
		}
	}

	set := make(map[string]struct{})
	var offset json.RawMessage
	for {
		points, next, err := s.index.Scroll(ctx, scrollPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, point := range points {
			var payload model.ChunkPayload
			if err := json.Unmarshal(point.Payload, &payload); err != nil {
				log.Printf("search: skipping point %v with malformed payload: %v", point.ID, err)
				continue
			}
			for _, value := range pick(&payload) {
				set[value] = struct{}{}
			}
		}
		if next == nil {
			break
		}
		offset = next
	}

	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)

	if s.cache != nil {
		if err := s.cache.Set(ctx, field, values); err != nil {
			log.Printf("search: enumeration cache write for %s failed: %v", field, err)
		}
	}
	return values, nil
}
