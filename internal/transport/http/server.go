package http

import (
	"github.com/gin-gonic/gin"

	"medication-agent/internal/bootstrap"
	"medication-agent/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	searchHandler := handler.NewSearchHandler(app.SearchService)
	metadataHandler := handler.NewMetadataHandler(app.SearchService)
	ingestHandler := handler.NewIngestHandler(app.Pipeline, app.JobPublisher, app.Reports)

	v1 := router.Group("/api/v1")
	v1.POST("/search", searchHandler.Search)
	v1.GET("/aliases", metadataHandler.ListAliases)
	v1.GET("/ingredients", metadataHandler.ListIngredients)
	v1.GET("/sections", metadataHandler.ListSections)

	ingestGroup := v1.Group("/ingest")
	ingestGroup.POST("", ingestHandler.Run)
	ingestGroup.POST("/jobs", ingestHandler.EnqueueJob)
	ingestGroup.GET("/jobs/:id", ingestHandler.GetJob)

	return router
}
