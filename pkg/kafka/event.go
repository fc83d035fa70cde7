package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventBookCreated         EventType = "book_created"
	EventBookUpdated         EventType = "book_updated"
	EventBookDeleted         EventType = "book_deleted"
	EventNotificationCreated EventType = "notification_created"
	EventNotificationRead    EventType = "notification_read"
	EventNotificationDeleted EventType = "notification_deleted"
)

type Event struct {
	Timestamp      time.Time  `json:"timestamp"`
	UserID         uuid.UUID  `json:"userId"`
	EventType      EventType  `json:"eventType"`
	BookID         *uuid.UUID `json:"bookId,omitempty"`
	NotificationID *uuid.UUID `json:"notificationId,omitempty"`
}

type Publisher struct {
	producer sarama.AsyncProducer
	topic    string
}

func NewPublisher(producer sarama.AsyncProducer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish is a no-op on a nil Publisher so callers don't have to care whether Kafka is enabled.
func (p *Publisher) Publish(e Event) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.UserID.String()),
		Value: sarama.ByteEncoder(data),
	}
	p.producer.Input() <- msg
	return nil
}
