package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/models"
)

// Topics holds the topic names the booking service publishes to.
type Topics struct {
	EventCreated     string
	BookingCreated   string
	BookingCancelled string
}

type Producer struct {
	Writer *kafka.Writer
	Topics Topics
}

func NewProducer(brokers []string, topics Topics) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishEventCreated streams the event creation to Kafka
func (p *Producer) PublishEventCreated(event models.Event) error {
	return p.publish(p.Topics.EventCreated, event.ID, event)
}

// PublishBookingCreated streams the booking creation to Kafka
func (p *Producer) PublishBookingCreated(b models.Booking) error {
	return p.publish(p.Topics.BookingCreated, b.ID, b)
}

// PublishBookingCancelled streams the cancellation to Kafka
func (p *Producer) PublishBookingCancelled(b models.Booking) error {
	return p.publish(p.Topics.BookingCancelled, b.ID, b)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
