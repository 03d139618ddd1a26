// Package queue provides the in-process topic decoupling the ingestion
// pipeline from the enrichment consumer. Delivery is at-least-once: a
// handler failure redelivers the message after a backoff instead of
// dropping it, so the consumer side must stay idempotent.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/models"
)

// Message is one delivery on the topic
type Message struct {
	ID      uuid.UUID
	Debt    models.Debt
	Attempt int
}

// Topic is a named channel carrying fully-built debt records
type Topic struct {
	name           string
	ch             chan Message
	redeliverDelay time.Duration
	log            *logrus.Logger
}

// NewTopic creates a topic with the given buffer size
func NewTopic(name string, buffer int, log *logrus.Logger) *Topic {
	return &Topic{
		name:           name,
		ch:             make(chan Message, buffer),
		redeliverDelay: time.Second,
		log:            log,
	}
}

// Publish enqueues a debt record. The producer does not wait for downstream
// persistence; it blocks only while the topic buffer is full.
func (t *Topic) Publish(ctx context.Context, debt models.Debt) error {
	msg := Message{ID: uuid.New(), Debt: debt, Attempt: 1}
	select {
	case t.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume runs the given number of worker loops until ctx is cancelled.
// A handler error redelivers the message; success acknowledges it. Ordering
// is preserved per producer only when a single worker consumes.
func (t *Topic) Consume(ctx context.Context, workers int, handler func(context.Context, models.Debt) error) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.worker(ctx, handler)
		}()
	}
	wg.Wait()
}

func (t *Topic) worker(ctx context.Context, handler func(context.Context, models.Debt) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.ch:
			if err := handler(ctx, msg.Debt); err != nil {
				t.log.WithFields(logrus.Fields{
					"topic":   t.name,
					"message": msg.ID,
					"attempt": msg.Attempt,
				}).Errorf("Handler failed, redelivering: %v", err)
				t.redeliver(ctx, msg)
			}
		}
	}
}

// redeliver re-enqueues a failed message after a backoff
func (t *Topic) redeliver(ctx context.Context, msg Message) {
	msg.Attempt++
	timer := time.NewTimer(t.redeliverDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	select {
	case <-ctx.Done():
	case t.ch <- msg:
	}
}

// SetRedeliverDelay overrides the backoff between redeliveries
func (t *Topic) SetRedeliverDelay(d time.Duration) {
	t.redeliverDelay = d
}
