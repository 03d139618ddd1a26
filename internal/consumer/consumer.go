// Package consumer receives debt records from the processing topic,
// enriches and persists them, and notifies the owning creditor's
// subscribers.
package consumer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/hub"
	"github.com/skolos/debt-service/internal/models"
	"github.com/skolos/debt-service/internal/queue"
)

// Store is the persistence surface the consumer needs
type Store interface {
	UpsertDebt(ctx context.Context, debt *models.Debt) error
}

// Events receives one event per successful persisted write
type Events interface {
	Publish(creditorID int64, event hub.Event)
}

// Consumer is the enrichment consumer worker group
type Consumer struct {
	topic *queue.Topic
	store Store
	hub   Events
	log   *logrus.Logger
}

// NewConsumer initializes a new consumer
func NewConsumer(topic *queue.Topic, store Store, events Events, log *logrus.Logger) *Consumer {
	return &Consumer{topic: topic, store: store, hub: events, log: log}
}

// Start blocks consuming the topic with the given worker count until ctx is
// cancelled. With more than one worker, ordering across records is not
// guaranteed; per-identity upserts stay commutative.
func (c *Consumer) Start(ctx context.Context, workers int) {
	c.topic.Consume(ctx, workers, c.Handle)
}

// Handle processes one delivered record: enrich, persist, notify. A
// persistence failure is returned as transient so the topic redelivers
// instead of dropping the record.
func (c *Consumer) Handle(ctx context.Context, debt models.Debt) error {
	enrich(&debt)

	if err := c.store.UpsertDebt(ctx, &debt); err != nil {
		return &apperrors.TransientError{Op: "persist debt", Err: err}
	}

	c.hub.Publish(debt.CreditorID, hub.Event{
		DebtID:             debt.ID,
		Status:             debt.Status,
		AmountOwed:         debt.AmountOwed,
		OutstandingBalance: debt.OutstandingBalance,
		DueDate:            debt.DueDate,
		UpdatedAt:          debt.UpdatedAt,
	})

	c.log.WithFields(logrus.Fields{
		"debt":     debt.ID,
		"creditor": debt.CreditorID,
	}).Debug("Debt record persisted")
	return nil
}

// enrich is the hook for post-ingestion business rules. No rules are
// defined yet; already-set fields must not be changed here.
func enrich(_ *models.Debt) {}
