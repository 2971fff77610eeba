package kafka

import (
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// MockProducer logs publishes instead of writing to a broker. Used when
// KAFKA_MOCK_MODE is set, so the service runs without a Kafka cluster.
type MockProducer struct {
	Logger *logger.Logger
}

func (m *MockProducer) logPublish(topic, key string) error {
	if m.Logger != nil {
		m.Logger.Info("KAFKA", fmt.Sprintf("mock publish to %s (key=%s)", topic, key))
	}
	return nil
}

func (m *MockProducer) PublishEventCreated(event models.Event) error {
	return m.logPublish("event.created", event.ID)
}

func (m *MockProducer) PublishBookingCreated(b models.Booking) error {
	return m.logPublish("booking.created", b.ID)
}

func (m *MockProducer) PublishBookingCancelled(b models.Booking) error {
	return m.logPublish("booking.cancelled", b.ID)
}
