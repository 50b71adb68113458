package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/pkg/config"
	"github.com/noah-isme/sma-marks-api/pkg/jobs"
)

const syncJobType = "marks.sync"

// SyncNotifier is told about every stored mark record. Implementations must not block or fail the caller.
type SyncNotifier interface {
	Notify(ctx context.Context, studentID int64)
}

// SyncEvent is the webhook payload.
type SyncEvent struct {
	StudentID int64 `json:"student_id"`
}

// WebhookNotifier posts sync events to an external endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier builds a notifier with a per-request timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Send delivers one event. Any non-2xx answer is an error.
func (w *WebhookNotifier) Send(ctx context.Context, event SyncEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sync event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync webhook responded %d", resp.StatusCode)
	}
	return nil
}

// SyncService delivers sync events in the background with retry.
type SyncService struct {
	webhook *WebhookNotifier
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSyncService returns nil when no webhook is configured, which disables the hook.
func NewSyncService(cfg config.SyncConfig, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if cfg.WebhookURL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SyncService{
		webhook: NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout),
		metrics: metrics,
		logger:  logger,
	}
	svc.queue = jobs.NewQueue("marks-sync", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *SyncService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries and drops the backlog.
func (s *SyncService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Drain delivers the backlog until ctx ends, then stops the workers.
func (s *SyncService) Drain(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Drain(ctx)
}

// Notify enqueues an event for studentID. A full or stopped queue only logs.
func (s *SyncService) Notify(ctx context.Context, studentID int64) {
	if s == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{Type: syncJobType, Payload: SyncEvent{StudentID: studentID}})
	if err != nil {
		s.metrics.RecordSyncDelivery("dropped")
		s.logger.Warn("sync event dropped", zap.Int64("student_id", studentID), zap.Error(err))
	}
}

func (s *SyncService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(SyncEvent)
	if !ok {
		s.logger.Error("unexpected sync payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.webhook.Send(ctx, event); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		s.metrics.RecordSyncDelivery("failed")
		return err
	}
	s.metrics.RecordSyncDelivery("ok")
	return nil
}
