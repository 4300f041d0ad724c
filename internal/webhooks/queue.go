package webhooks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delivery is one pending POST of an event payload to a subscriber URL.
type Delivery struct {
	ID        string
	EventID   string
	EventType string
	URL       string
	Secret    string
	Payload   []byte
	Attempts  int
}

// Queue holds deliveries until they succeed or run out of attempts.
type Queue interface {
	Enqueue(ctx context.Context, d Delivery) (string, error)
	FetchDue(ctx context.Context, limit int) ([]Delivery, error)
	Mark(ctx context.Context, id string, success bool, next time.Time, lastError string, code int) error
	Fail(ctx context.Context, id string, lastError string, code int) error
}

type memDelivery struct {
	Delivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	Status        string // pending, delivered, failed
}

// MemoryQueue is an in-process Queue. Deliveries do not survive a restart.
type MemoryQueue struct {
	mu    sync.Mutex
	items map[string]*memDelivery
	now   func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{items: map[string]*memDelivery{}, now: time.Now}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, d Delivery) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	q.items[d.ID] = &memDelivery{Delivery: d, NextAttemptAt: q.now(), Status: "pending"}
	return d.ID, nil
}

func (q *MemoryQueue) FetchDue(ctx context.Context, limit int) ([]Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	due := []*memDelivery{}
	for _, d := range q.items {
		if d.Status == "pending" && !d.NextAttemptAt.After(now) {
			due = append(due, d)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]Delivery, len(due))
	for i, d := range due {
		out[i] = d.Delivery
	}
	return out, nil
}

func (q *MemoryQueue) Mark(ctx context.Context, id string, success bool, next time.Time, lastError string, code int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.items[id]
	if !ok {
		return nil
	}
	d.Attempts++
	d.ResponseCode = code
	d.LastError = lastError
	if success {
		// delivered entries are dropped; nothing reads them back
		delete(q.items, id)
		return nil
	}
	d.NextAttemptAt = next
	return nil
}

func (q *MemoryQueue) Fail(ctx context.Context, id string, lastError string, code int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d, ok := q.items[id]; ok {
		d.Attempts++
		d.Status = "failed"
		d.LastError = lastError
		d.ResponseCode = code
	}
	return nil
}

// Pending counts deliveries still waiting to succeed.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, d := range q.items {
		if d.Status == "pending" {
			n++
		}
	}
	return n
}

// Failed returns the dead-lettered deliveries.
func (q *MemoryQueue) Failed() []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Delivery{}
	for _, d := range q.items {
		if d.Status == "failed" {
			out = append(out, d.Delivery)
		}
	}
	return out
}
