package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// StockLevel reports an inventory quantity after a change
type StockLevel struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
	Delta    int   `json:"delta"`
}

// ChangeEvent describes committed row changes on the change feed
type ChangeEvent struct {
	EventID       uuid.UUID                   `json:"event_id"`
	Type          shared.ChangeType           `json:"type"`
	OperationID   *uuid.UUID                  `json:"operation_id,omitempty"`
	CorrelationID string                      `json:"correlation_id,omitempty"`
	Actor         shared.Actor                `json:"actor"`
	Entries       []*ledger.Entry             `json:"entries,omitempty"`
	EntryIDs      []int64                     `json:"entry_ids,omitempty"`
	Stock         []StockLevel                `json:"stock,omitempty"`
	Drift         *ledger.ReconciliationDrift `json:"drift,omitempty"`
	OccurredAt    time.Time                   `json:"occurred_at"`
}

// NewChangeEvent creates an event of the given type
func NewChangeEvent(changeType shared.ChangeType, actor shared.Actor, correlationID string) *ChangeEvent {
	return &ChangeEvent{
		EventID:       uuid.New(),
		Type:          changeType,
		CorrelationID: correlationID,
		Actor:         actor,
		OccurredAt:    time.Now().UTC(),
	}
}

// Key is the partition key of the event on the change feed
func (e *ChangeEvent) Key() string {
	if e.OperationID != nil {
		return e.OperationID.String()
	}
	if len(e.Entries) > 0 {
		return strconv.FormatInt(e.Entries[0].ID, 10)
	}
	if len(e.EntryIDs) > 0 {
		return strconv.FormatInt(e.EntryIDs[0], 10)
	}
	if len(e.Stock) > 0 {
		return "item-" + strconv.FormatInt(e.Stock[0].ItemID, 10)
	}
	return e.EventID.String()
}

// CreatedEntryIDs lists the ids of the entries created by the event
func (e *ChangeEvent) CreatedEntryIDs() []int64 {
	ids := make([]int64, 0, len(e.Entries))
	for _, entry := range e.Entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

// Message stores a change event for reliable publishing
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	OperationID   *uuid.UUID          `json:"operation_id,omitempty"`
	EventType     shared.ChangeType   `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *ChangeEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:     event.EventID,
		OperationID: event.OperationID,
		EventType:   event.Type,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetChangeEvent extracts the change event from the payload
func (m *Message) GetChangeEvent() (*ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
