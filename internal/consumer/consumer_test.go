package consumer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/hub"
	"github.com/skolos/debt-service/internal/models"
	"github.com/skolos/debt-service/internal/queue"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeStore records upserts and can fail a configurable number of times
type fakeStore struct {
	mu       sync.Mutex
	upserted []models.Debt
	failures int
	persist  chan struct{}
}

func (s *fakeStore) UpsertDebt(_ context.Context, debt *models.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("connection refused")
	}
	if debt.ID == 0 {
		debt.ID = int64(len(s.upserted) + 1)
	}
	s.upserted = append(s.upserted, *debt)
	if s.persist != nil {
		s.persist <- struct{}{}
	}
	return nil
}

// fakeEvents records hub publications
type fakeEvents struct {
	mu     sync.Mutex
	events []struct {
		CreditorID int64
		Event      hub.Event
	}
}

func (e *fakeEvents) Publish(creditorID int64, event hub.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, struct {
		CreditorID int64
		Event      hub.Event
	}{creditorID, event})
}

func testDebt() models.Debt {
	return models.Debt{
		CreditorID:       3,
		DebtorID:         4,
		CategoryID:       2,
		AmountOwed:       decimal.RequireFromString("84.35"),
		LateInterestRate: decimal.RequireFromString("5"),
		DueDate:          time.Date(2024, 12, 12, 23, 0, 0, 0, time.UTC),
		Status:           models.StatusNew,
	}
}

func TestHandlePersistsAndNotifies(t *testing.T) {
	store := &fakeStore{}
	events := &fakeEvents{}
	c := NewConsumer(queue.NewTopic("test", 1, newTestLogger()), store, events, newTestLogger())

	debt := testDebt()
	require.NoError(t, c.Handle(context.Background(), debt))

	require.Len(t, store.upserted, 1)
	require.Len(t, events.events, 1)
	assert.Equal(t, int64(3), events.events[0].CreditorID, "event goes to the owning creditor")
	assert.Equal(t, store.upserted[0].ID, events.events[0].Event.DebtID)
	assert.Equal(t, models.StatusNew, events.events[0].Event.Status)
}

func TestHandleStoreFailureIsTransient(t *testing.T) {
	store := &fakeStore{failures: 1}
	events := &fakeEvents{}
	c := NewConsumer(queue.NewTopic("test", 1, newTestLogger()), store, events, newTestLogger())

	err := c.Handle(context.Background(), testDebt())

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err), "persistence failures must trigger redelivery")
	assert.Empty(t, events.events, "no event may be published for a failed write")
}

func TestConsumerRedeliveryEventuallyPersists(t *testing.T) {
	topic := queue.NewTopic("test", 16, newTestLogger())
	topic.SetRedeliverDelay(time.Millisecond)
	store := &fakeStore{failures: 2, persist: make(chan struct{}, 1)}
	events := &fakeEvents{}
	c := NewConsumer(topic, store, events, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx, 1)

	require.NoError(t, topic.Publish(ctx, testDebt()))

	select {
	case <-store.persist:
	case <-time.After(2 * time.Second):
		t.Fatal("record was never persisted despite redelivery")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.upserted, 1, "the record is persisted exactly once after retries")
}

func TestHandleDuplicateDeliveryIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	events := &fakeEvents{}
	c := NewConsumer(queue.NewTopic("test", 1, newTestLogger()), store, events, newTestLogger())

	debt := testDebt()
	debt.ID = 7 // identity assigned on first persist
	require.NoError(t, c.Handle(context.Background(), debt))
	require.NoError(t, c.Handle(context.Background(), debt))

	// same identity both times: the store overwrites, it never duplicates
	require.Len(t, store.upserted, 2)
	assert.Equal(t, store.upserted[0].ID, store.upserted[1].ID)
	assert.Len(t, events.events, 2, "each successful write emits one event")
}
