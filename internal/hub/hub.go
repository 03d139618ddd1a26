// Package hub fans persisted-record events out to per-creditor
// subscription channels, feeding live dashboard clients.
package hub

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/models"
)

// Event announces one successful persisted write of a debt record
type Event struct {
	DebtID             int64               `json:"debt_id"`
	Status             models.DebtStatus   `json:"status"`
	AmountOwed         decimal.Decimal     `json:"amount_owed"`
	OutstandingBalance decimal.NullDecimal `json:"outstanding_balance"`
	DueDate            time.Time           `json:"due_date"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type subscriber struct {
	creditorID int64
	ch         chan Event
}

// Hub routes events to the owning creditor's subscribers
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[int]*subscriber
	next int
	log  *logrus.Logger
}

// NewHub creates an empty hub
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		subs: make(map[int64]map[int]*subscriber),
		log:  log,
	}
}

// Subscribe registers a subscriber for one creditor's events. The returned
// cancel func must be called to release the channel.
func (h *Hub) Subscribe(creditorID int64) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{creditorID: creditorID, ch: make(chan Event, 64)}
	if h.subs[creditorID] == nil {
		h.subs[creditorID] = make(map[int]*subscriber)
	}
	id := h.next
	h.next++
	h.subs[creditorID][id] = sub

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[creditorID][id]; ok {
			delete(h.subs[creditorID], id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of the owning creditor.
// Slow subscribers are skipped rather than blocking the consumer.
func (h *Hub) Publish(creditorID int64, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[creditorID] {
		select {
		case sub.ch <- event:
		default:
			h.log.Warnf("Dropping event for slow subscriber of creditor %d", creditorID)
		}
	}
}
