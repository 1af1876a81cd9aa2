package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"medication-agent/internal/cache"
	"medication-agent/internal/ingest"
	"medication-agent/internal/platform/rabbitmq"
)

// IngestWorker consumes queued ingest jobs, runs the pipeline, and files the
// report so the API can answer status polls.
type IngestWorker struct {
	conn      *amqp.Connection
	pipeline  *ingest.Pipeline
	reports   *cache.ReportStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(conn *amqp.Connection, pipeline *ingest.Pipeline, reports *cache.ReportStore, queueName string) *IngestWorker {
	return &IngestWorker{
		conn:      conn,
		pipeline:  pipeline,
		reports:   reports,
		queueName: queueName,
	}
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	// One batch at a time; a batch is already internally concurrent.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *IngestWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job rabbitmq.IngestJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("worker decode ingest job failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	w.storeRecord(ctx, cache.JobRecord{
		JobID:      job.JobID,
		Status:     cache.JobStatusRunning,
		EnqueuedAt: job.EnqueuedAt,
	})

	report, err := w.pipeline.Run(ctx, job.Batch)
	finished := time.Now()
	record := cache.JobRecord{
		JobID:      job.JobID,
		EnqueuedAt: job.EnqueuedAt,
		Report:     report,
		FinishedAt: &finished,
	}
	if err != nil {
		log.Printf("worker ingest job %s failed: %v", job.JobID, err)
		record.Status = cache.JobStatusFailed
		record.Error = err.Error()
	} else {
		log.Printf("worker ingest job %s done: %d processed, %d errors",
			job.JobID, report.Processed, len(report.Errors))
		record.Status = cache.JobStatusDone
	}
	w.storeRecord(ctx, record)

	_ = d.Ack(false)
}

func (w *IngestWorker) storeRecord(ctx context.Context, record cache.JobRecord) {
	if err := w.reports.Put(ctx, record); err != nil {
		log.Printf("worker store job record %s failed: %v", record.JobID, err)
	}
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
