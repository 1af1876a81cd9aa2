package handler

import (
	"github.com/gin-gonic/gin"

	"medication-agent/internal/label"
	"medication-agent/internal/search"
	"medication-agent/internal/transport/http/response"
)

type MetadataHandler struct {
	searchService *search.Service
}

func NewMetadataHandler(searchService *search.Service) *MetadataHandler {
	return &MetadataHandler{searchService: searchService}
}

func (h *MetadataHandler) ListAliases(c *gin.Context) {
	aliases, err := h.searchService.ListAliases(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"aliases": aliases, "total": len(aliases)})
}

func (h *MetadataHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.searchService.ListIngredients(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"ingredients": ingredients, "total": len(ingredients)})
}

// ListSections is static: the section vocabulary is fixed by the label schema.
func (h *MetadataHandler) ListSections(c *gin.Context) {
	sections := label.Sections()
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.String())
	}
	response.OK(c, gin.H{"sections": names, "total": len(names)})
}
