package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medication-agent/internal/search"
	"medication-agent/internal/transport/http/response"
)

type SearchHandler struct {
	searchService *search.Service
}

type SearchRequest struct {
	Query      string `json:"query"`
	Section    string `json:"section"`
	Alias      string `json:"alias"`
	Ingredient string `json:"ingredient"`
	// K is a pointer so "absent" and "explicit zero" stay distinguishable:
	// absent falls back to the default, zero is rejected.
	K *int `json:"k"`
}

func NewSearchHandler(searchService *search.Service) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	k := search.DefaultK
	if req.K != nil {
		k = *req.K
	}

	result, err := h.searchService.Search(c.Request.Context(), search.Params{
		Query:      req.Query,
		Section:    req.Section,
		Alias:      req.Alias,
		Ingredient: req.Ingredient,
		K:          k,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, result)
}
