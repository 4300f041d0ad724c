package webhooks

import (
	"context"
	"encoding/json"
	"log"

	"wayfarer/internal/model"
)

// Source is the subscribe side of an event broker.
type Source interface {
	Subscribe(topic string) chan model.Event
	Unsubscribe(topic string, ch chan model.Event)
}

// Target is one subscriber endpoint.
type Target struct {
	URL    string
	Secret string
}

// Publisher turns change events into queued deliveries, one per target.
type Publisher struct {
	Queue   Queue
	Targets []Target
	Logger  *log.Logger
}

func NewPublisher(q Queue, urls []string, secret string) *Publisher {
	p := &Publisher{Queue: q, Logger: log.Default()}
	for _, u := range urls {
		p.Targets = append(p.Targets, Target{URL: u, Secret: secret})
	}
	return p
}

// Emit enqueues evt for every target.
func (p *Publisher) Emit(ctx context.Context, evt model.Event) {
	if len(p.Targets) == 0 {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		p.logf("webhook: encode %s: %v", evt.ID, err)
		return
	}
	for _, t := range p.Targets {
		d := Delivery{EventID: evt.ID, EventType: evt.Type, URL: t.URL, Secret: t.Secret, Payload: body}
		if _, err := p.Queue.Enqueue(ctx, d); err != nil {
			p.logf("webhook: enqueue %s for %s: %v", evt.ID, t.URL, err)
		}
	}
}

// Run emits every event seen on topic until ctx ends or the source closes
// the subscription.
func (p *Publisher) Run(ctx context.Context, src Source, topic string) {
	ch := src.Subscribe(topic)
	defer src.Unsubscribe(topic, ch)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			p.Emit(ctx, evt)
		}
	}
}

func (p *Publisher) logf(format string, args ...any) {
	if p.Logger == nil {
		log.Printf(format, args...)
		return
	}
	p.Logger.Printf(format, args...)
}
