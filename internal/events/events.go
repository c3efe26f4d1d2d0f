// Package events описывает события изменения данных трекера и их доставку в Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicChanges задаёт тему внутренней шины, в которую публикуются все изменения.
const TopicChanges = "tracker:changed"

// Типы событий.
const (
	OrderCreated   = "OrderCreated"
	OrderUpdated   = "OrderUpdated"
	OrderDeleted   = "OrderDeleted"
	ProfileSaved   = "ProfileSaved"
	SignupReceived = "SignupReceived"
)

// Event описывает конверт события.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	Version    int             `json:"event_version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// New создаёт событие с новым идентификатором. key используется как ключ партиционирования.
func New(producer, eventType, key string, payload any, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Version:    1,
		OccurredAt: at.UTC(),
		Producer:   producer,
		Key:        key,
		Payload:    raw,
	}, nil
}

// OrderPayload описывает полезную нагрузку событий заказа.
type OrderPayload struct {
	Index int     `json:"index"`
	Order any     `json:"order,omitempty"`
	Total float64 `json:"total"`
}
