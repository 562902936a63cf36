package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeNotification EventType = "oms.notification"
)

// DefaultNotificationTopic: топик уведомлений по умолчанию.
const DefaultNotificationTopic = "oms.notifications"

// HeaderEventID: заголовок с идентификатором события для дедупликации у потребителей.
const HeaderEventID = "x-event-id"

// NotificationEvent: уведомление, опубликованное сервисом.
type NotificationEvent struct {
	EventID     string    `json:"event_id"`
	EventType   EventType `json:"event_type"`
	Environment string    `json:"environment"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewNotificationEvent создаёт событие с новым идентификатором.
func NewNotificationEvent(environment, message string) *NotificationEvent {
	return &NotificationEvent{
		EventID:     uuid.NewString(),
		EventType:   EventTypeNotification,
		Environment: environment,
		Message:     message,
		Timestamp:   time.Now().UTC(),
	}
}
