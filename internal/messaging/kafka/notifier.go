package kafka

import (
	"context"
	"fmt"
)

// Notifier публикует уведомления в Kafka-топик; ключом сообщения служит окружение.
type Notifier struct {
	producer    *Producer
	topic       string
	environment string
}

// NewNotifier создаёт уведомитель поверх producer.
func NewNotifier(producer *Producer, topic, environment string) *Notifier {
	if topic == "" {
		topic = DefaultNotificationTopic
	}
	return &Notifier{producer: producer, topic: topic, environment: environment}
}

// Notify публикует сообщение как NotificationEvent.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	event := NewNotificationEvent(n.environment, message)
	headers := map[string]string{HeaderEventID: event.EventID}
	if err := n.producer.PublishEvent(ctx, n.topic, n.environment, event, headers); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close закрывает producer.
func (n *Notifier) Close() error {
	return n.producer.Close()
}
