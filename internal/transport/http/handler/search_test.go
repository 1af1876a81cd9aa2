package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-agent/internal/model"
	"medication-agent/internal/platform/qdrant"
	"medication-agent/internal/search"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type stubIndex struct {
	lastLimit int
	searchErr error
}

func (s *stubIndex) Search(_ context.Context, _ []float32, _ *qdrant.Filter, limit int) ([]qdrant.ScoredPoint, error) {
	s.lastLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	payload, _ := json.Marshal(model.ChunkPayload{
		ItemSeq:  "1",
		Section:  "efficacy",
		ItemName: "타이레놀정(아세트아미노펜)",
		Text:     "해열 및 진통",
	})
	return []qdrant.ScoredPoint{{ID: "p1", Score: 0.93, Payload: payload}}, nil
}

func (s *stubIndex) Scroll(context.Context, int, json.RawMessage) ([]qdrant.ScrolledPoint, json.RawMessage, error) {
	return nil, nil, nil
}

func newSearchRouter(index *stubIndex) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	svc := search.NewService(stubEmbedder{}, index, nil)
	router.POST("/api/v1/search", NewSearchHandler(svc).Search)
	return router
}

func doSearch(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearch_DefaultsKWhenAbsent(t *testing.T) {
	index := &stubIndex{}
	rec := doSearch(t, newSearchRouter(index), `{"query":"두통"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.DefaultK, index.lastLimit)

	var envelope struct {
		Code int             `json:"code"`
		Data search.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 0, envelope.Code)
	require.Equal(t, 1, envelope.Data.Total)
	assert.Equal(t, "해열 및 진통", envelope.Data.Results[0].Text)
}

func TestSearch_ExplicitZeroKRejected(t *testing.T) {
	rec := doSearch(t, newSearchRouter(&stubIndex{}), `{"query":"두통","k":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	rec := doSearch(t, newSearchRouter(&stubIndex{}), `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_UnknownSectionRejected(t *testing.T) {
	rec := doSearch(t, newSearchRouter(&stubIndex{}), `{"query":"두통","section":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_MalformedBodyRejected(t *testing.T) {
	rec := doSearch(t, newSearchRouter(&stubIndex{}), `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_IndexUnavailableMapsToBadGateway(t *testing.T) {
	index := &stubIndex{searchErr: qdrant.ErrUnavailable}
	rec := doSearch(t, newSearchRouter(index), `{"query":"두통"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
