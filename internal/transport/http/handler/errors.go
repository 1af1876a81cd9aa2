package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medication-agent/internal/ai"
	"medication-agent/internal/platform/qdrant"
	"medication-agent/internal/search"
	"medication-agent/internal/transport/http/response"
)

// writeServiceError maps domain errors onto HTTP statuses: validation is the
// caller's fault, upstream timeouts and provider failures are gateway errors,
// anything else is a 500.
func writeServiceError(c *gin.Context, err error) {
	var providerErr *ai.ProviderError
	var apiErr *qdrant.APIError

	switch {
	case errors.Is(err, search.ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusGatewayTimeout, response.CodeUpstreamTimeout, "upstream request timed out")
	case errors.As(err, &providerErr), errors.As(err, &apiErr), errors.Is(err, qdrant.ErrUnavailable):
		response.Error(c, http.StatusBadGateway, response.CodeUpstreamError, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
	}
}
