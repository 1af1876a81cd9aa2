package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-agent/internal/model"
	"medication-agent/internal/platform/qdrant"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

type stubIndex struct {
	hits       []qdrant.ScoredPoint
	pages      [][]qdrant.ScrolledPoint
	page       int
	gotFilter  *qdrant.Filter
	gotLimit   int
	searchErr  error
	gotOffsets []json.RawMessage
}

func (s *stubIndex) Search(_ context.Context, _ []float32, filter *qdrant.Filter, limit int) ([]qdrant.ScoredPoint, error) {
	s.gotFilter = filter
	s.gotLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if len(s.hits) > limit {
		return s.hits[:limit], nil
	}
	return s.hits, nil
}

func (s *stubIndex) Scroll(_ context.Context, _ int, offset json.RawMessage) ([]qdrant.ScrolledPoint, json.RawMessage, error) {
	s.gotOffsets = append(s.gotOffsets, offset)
	points := s.pages[s.page]
	s.page++
	if s.page < len(s.pages) {
		return points, json.RawMessage(`"next"`), nil
	}
	return points, nil, nil
}

func mustPayload(t *testing.T, p model.ChunkPayload) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestSearch_ValidationBeforeNetwork(t *testing.T) {
	embedder := &stubEmbedder{}
	svc := NewService(embedder, &stubIndex{}, nil)

	cases := []Params{
		{Query: "", K: 8},
		{Query: "   ", K: 8},
		{Query: "타이레놀", K: 0},
		{Query: "타이레놀", K: -3},
		{Query: "타이레놀", K: 8, Section: "not-a-section"},
	}
	for _, params := range cases {
		_, err := svc.Search(context.Background(), params)
		assert.ErrorIs(t, err, ErrValidation, "%+v", params)
	}
	assert.Zero(t, embedder.calls, "validation failures must not reach the embedder")
}

func TestSearch_BuildsConjunctiveFilter(t *testing.T) {
	index := &stubIndex{}
	svc := NewService(&stubEmbedder{}, index, nil)

	_, err := svc.Search(context.Background(), Params{
		Query:      "상호작용",
		Section:    "interactions",
		Alias:      "타이레놀",
		Ingredient: "아세트아미노펜",
		K:          3,
	})
	require.NoError(t, err)
	require.NotNil(t, index.gotFilter)
	require.Len(t, index.gotFilter.Must, 3)
	assert.Equal(t, qdrant.MatchValue("section", "interactions"), index.gotFilter.Must[0])
	assert.Equal(t, qdrant.MatchAny("aliases", "타이레놀"), index.gotFilter.Must[1])
	assert.Equal(t, qdrant.MatchAny("ingredients", "아세트아미노펜"), index.gotFilter.Must[2])
	assert.Equal(t, 3, index.gotLimit)
}

func TestSearch_NoFiltersSearchesEverything(t *testing.T) {
	index := &stubIndex{}
	svc := NewService(&stubEmbedder{}, index, nil)

	_, err := svc.Search(context.Background(), Params{Query: "타이레놀", K: DefaultK})
	require.NoError(t, err)
	assert.Nil(t, index.gotFilter)
	assert.Equal(t, DefaultK, index.gotLimit)
}

func TestSearch_MapsPayloadToResults(t *testing.T) {
	payload := model.ChunkPayload{
		ItemSeq:     "1",
		Section:     "efficacy",
		PartIdx:     0,
		ItemName:    "타이레놀정(아세트아미노펜)",
		EntpName:    "한국얀센",
		Aliases:     []string{"타이레놀"},
		Ingredients: []string{"아세트아미노펜"},
		IsOTC:       true,
		UpdateDe:    "2021-01-29",
		Text:        "해열 및 진통",
	}
	index := &stubIndex{hits: []qdrant.ScoredPoint{
		{ID: "p1", Score: 0.91, Payload: mustPayload(t, payload)},
	}}
	svc := NewService(&stubEmbedder{}, index, nil)

	resp, err := svc.Search(context.Background(), Params{Query: "타이레놀 효능", K: 3})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	result := resp.Results[0]
	assert.InDelta(t, 0.91, result.Score, 1e-9)
	assert.Equal(t, "1", result.ItemSeq)
	assert.Equal(t, "efficacy", result.Section)
	assert.Equal(t, []string{"타이레놀"}, result.Aliases)
	assert.True(t, result.IsOTC)
	assert.Equal(t, "해열 및 진통", result.Text)
}

func TestSearch_ResultCountBounded(t *testing.T) {
	var hits []qdrant.ScoredPoint
	for i := 0; i < 10; i++ {
		hits = append(hits, qdrant.ScoredPoint{Score: 1, Payload: mustPayload(t, model.ChunkPayload{ItemSeq: "1"})})
	}
	index := &stubIndex{hits: hits}
	svc := NewService(&stubEmbedder{}, index, nil)

	resp, err := svc.Search(context.Background(), Params{Query: "q", K: 4})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Results), 4)

	// Oversized k is clamped rather than rejected.
	_, err = svc.Search(context.Background(), Params{Query: "q", K: 5000})
	require.NoError(t, err)
	assert.Equal(t, maxK, index.gotLimit)
}

func TestSearch_EmbedderErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider down")
	svc := NewService(&stubEmbedder{err: wantErr}, &stubIndex{}, nil)

	_, err := svc.Search(context.Background(), Params{Query: "q", K: 8})
	assert.ErrorIs(t, err, wantErr)
}

func TestSearch_IndexErrorPropagates(t *testing.T) {
	index := &stubIndex{searchErr: qdrant.ErrUnavailable}
	svc := NewService(&stubEmbedder{}, index, nil)

	_, err := svc.Search(context.Background(), Params{Query: "q", K: 8})
	assert.ErrorIs(t, err, qdrant.ErrUnavailable)
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubIndex{}, nil)
	resp, err := svc.Search(context.Background(), Params{Query: "q", K: 8})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
}

func TestListAliases_ScrollsAllPagesSortedDeduped(t *testing.T) {
	index := &stubIndex{pages: [][]qdrant.ScrolledPoint{
		{
			{ID: "p1", Payload: mustPayload(t, model.ChunkPayload{Aliases: []string{"타이레놀", "게보린"}})},
		},
		{
			{ID: "p2", Payload: mustPayload(t, model.ChunkPayload{Aliases: []string{"게보린", "판콜에이"}})},
		},
	}}
	svc := NewService(&stubEmbedder{}, index, nil)

	aliases, err := svc.ListAliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"게보린", "타이레놀", "판콜에이"}, aliases)
	require.Len(t, index.gotOffsets, 2, "must scroll until the index reports exhaustion")
	assert.Nil(t, index.gotOffsets[0])
	assert.Equal(t, json.RawMessage(`"next"`), index.gotOffsets[1])
}

type mapCache struct {
	values map[string][]string
	sets   int
}

func (c *mapCache) Get(_ context.Context, field string) ([]string, bool, error) {
	v, ok := c.values[field]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, field string, values []string) error {
	c.sets++
	c.values[field] = values
	return nil
}

func TestListIngredients_UsesCache(t *testing.T) {
	index := &stubIndex{pages: [][]qdrant.ScrolledPoint{
		{{ID: "p1", Payload: mustPayload(t, model.ChunkPayload{Ingredients: []string{"아세트아미노펜"}})}},
	}}
	cache := &mapCache{values: make(map[string][]string)}
	svc := NewService(&stubEmbedder{}, index, cache)

	first, err := svc.ListIngredients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"아세트아미노펜"}, first)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from the cache; the stub would panic on a
	// second scroll past its single page.
	second, err := svc.ListIngredients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
