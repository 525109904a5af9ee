package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"poster-shop/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer wraps a kafka writer for activity events
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{writer: writer}
}

// PublishEvent publishes an event to Kafka
func (p *Producer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ActivityEvent is the wire form of an activity log entry. The file remains
// the source of truth; these events are a mirror for downstream consumers
// (dashboards, alerting) and carry a machine-readable timestamp alongside
// the log's display date.
type ActivityEvent struct {
	Date      string    `json:"date"`
	Username  string    `json:"username"`
	Activity  string    `json:"activity"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityPublisher publishes activity entries keyed by username, so one
// user's events stay ordered within a partition
type ActivityPublisher struct {
	producer *Producer
}

// NewActivityPublisher creates a publisher on top of producer
func NewActivityPublisher(producer *Producer) *ActivityPublisher {
	return &ActivityPublisher{producer: producer}
}

// PublishActivity implements activitylog.Publisher
func (ap *ActivityPublisher) PublishActivity(ctx context.Context, entry models.ActivityEntry) error {
	event := ActivityEvent{
		Date:      entry.Date,
		Username:  entry.Username,
		Activity:  entry.Activity,
		Timestamp: time.Now().UTC(),
	}
	return ap.producer.PublishEvent(ctx, entry.Username, event)
}
