package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"medication-agent/internal/ingest"
)

// JobStatus is the lifecycle of an async ingest job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// JobRecord is what GET /ingest/jobs/:id returns.
type JobRecord struct {
	JobID      string         `json:"job_id"`
	Status     JobStatus      `json:"status"`
	Report     *ingest.Report `json:"report,omitempty"`
	Error      string         `json:"error,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// ReportStore parks async ingest job state in redis so the API can answer
// status polls after the worker has moved on.
type ReportStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewReportStore(client *redisv9.Client, ttl time.Duration) *ReportStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReportStore{client: client, ttl: ttl}
}

func (s *ReportStore) Put(ctx context.Context, record JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal job record failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.JobID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set job record failed: %w", err)
	}
	return nil
}

// Get returns the job record, or (nil, nil) when the job is unknown or expired.
func (s *ReportStore) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	raw, err := s.client.Get(ctx, s.key(jobID)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get job record failed: %w", err)
	}
	var record JobRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal job record failed: %w", err)
	}
	return &record, nil
}

func (s *ReportStore) key(jobID string) string {
	return "ingest:job:" + jobID
}
