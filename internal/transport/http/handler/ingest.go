package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medication-agent/internal/cache"
	"medication-agent/internal/ingest"
	"medication-agent/internal/platform/rabbitmq"
	"medication-agent/internal/transport/http/response"
)

type IngestHandler struct {
	pipeline  *ingest.Pipeline
	publisher *rabbitmq.JobPublisher
	reports   *cache.ReportStore
}

func NewIngestHandler(pipeline *ingest.Pipeline, publisher *rabbitmq.JobPublisher, reports *cache.ReportStore) *IngestHandler {
	return &IngestHandler{
		pipeline:  pipeline,
		publisher: publisher,
		reports:   reports,
	}
}

// Run ingests a label batch synchronously and returns the full report. Meant
// for small batches; large ones should go through EnqueueJob.
func (h *IngestHandler) Run(c *gin.Context) {
	var batch ingest.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid batch payload")
		return
	}
	if len(batch) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "batch is empty")
		return
	}

	report, err := h.pipeline.Run(c.Request.Context(), batch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, report)
}

// EnqueueJob queues a batch for the background worker and returns the job id
// to poll.
func (h *IngestHandler) EnqueueJob(c *gin.Context) {
	var batch ingest.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid batch payload")
		return
	}
	if len(batch) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "batch is empty")
		return
	}

	job := rabbitmq.IngestJob{
		JobID:      uuid.NewString(),
		Batch:      batch,
		EnqueuedAt: time.Now(),
	}
	if err := h.publisher.Publish(c.Request.Context(), job); err != nil {
		response.Error(c, http.StatusBadGateway, response.CodeUpstreamError, "enqueue ingest job failed: "+err.Error())
		return
	}

	record := cache.JobRecord{
		JobID:      job.JobID,
		Status:     cache.JobStatusQueued,
		EnqueuedAt: job.EnqueuedAt,
	}
	// A failed record write is not fatal: the job is already queued and the
	// worker overwrites the record anyway.
	_ = h.reports.Put(c.Request.Context(), record)
	response.Accepted(c, record)
}

func (h *IngestHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	record, err := h.reports.Get(c.Request.Context(), jobID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load job record failed")
		return
	}
	if record == nil {
		response.Error(c, http.StatusNotFound, response.CodeJobNotFound, "job not found")
		return
	}
	response.OK(c, record)
}
