package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"wayfarer/internal/metrics"
)

// Worker drains the queue, POSTing each due delivery and rescheduling
// failures with exponential backoff until MaxAttempts.
type Worker struct {
	Queue       Queue
	HTTP        *http.Client
	MaxAttempts int
	Interval    time.Duration
	Logger      *log.Logger

	now func() time.Time
}

func NewWorker(q Queue, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Worker{
		Queue:       q,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		Interval:    time.Second,
		Logger:      log.Default(),
		now:         time.Now,
	}
}

// Start polls until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.processOnce(ctx)
			}
		}
	}()
}

func (w *Worker) processOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()
	items, err := w.Queue.FetchDue(ctx, 50)
	if err != nil || len(items) == 0 {
		return
	}
	for _, it := range items {
		code, err := w.send(ctx, it)
		if err == nil {
			metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
			_ = w.Queue.Mark(ctx, it.ID, true, time.Time{}, "", code)
			continue
		}
		if it.Attempts+1 >= w.MaxAttempts {
			metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			w.logf("webhook: giving up on %s to %s after %d attempts: %v", it.EventID, it.URL, it.Attempts+1, err)
			_ = w.Queue.Fail(ctx, it.ID, err.Error(), code)
			continue
		}
		metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
		_ = w.Queue.Mark(ctx, it.ID, false, w.clock().Add(nextBackoff(it.Attempts)), err.Error(), code)
	}
}

func (w *Worker) send(ctx context.Context, it Delivery) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, it.URL, bytes.NewReader(it.Payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", it.EventType)
	req.Header.Set("X-Event-Id", it.EventID)
	if it.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(it.Secret, w.clock(), it.Payload))
	}
	resp, err := w.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (w *Worker) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}

// maxBackoffShift caps the delay at 2^10 seconds (about 17 minutes).
const maxBackoffShift = 10

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > maxBackoffShift {
		attempts = maxBackoffShift
	}
	return time.Second * time.Duration(1<<attempts)
}

func (w *Worker) logf(format string, args ...any) {
	if w.Logger == nil {
		log.Printf(format, args...)
		return
	}
	w.Logger.Printf(format, args...)
}
