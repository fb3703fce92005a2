package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// EventDeployed is the DeploymentEvent type for a successful reconcile.
const EventDeployed = "review.deployed"

// DeploymentEvent is the JSON value published for each announcement.
type DeploymentEvent struct {
	Type string `json:"type"`
	domain.Announcement
}

// messageWriter is the part of *kafka.Writer the announcer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes deployment events keyed by slug, so every event for one
// review app lands on the same partition in order.
type Kafka struct {
	writer messageWriter
	topic  string
}

// NewKafka creates a Kafka announcer writing to topic on brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	if topic == "" {
		topic = constants.DefaultKafkaTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           constants.DefaultKafkaWriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: w, topic: topic}
}

func newKafkaWithWriter(w messageWriter, topic string) *Kafka {
	return &Kafka{writer: w, topic: topic}
}

// Name implements Announcer.
func (k *Kafka) Name() string { return "kafka" }

// Topic returns the destination topic.
func (k *Kafka) Topic() string { return k.topic }

// Announce implements Announcer.
func (k *Kafka) Announce(ctx context.Context, a domain.Announcement) error {
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	value, err := json.Marshal(DeploymentEvent{Type: EventDeployed, Announcement: a})
	if err != nil {
		return errors.Wrap(err, "encode deployment event")
	}
	msg := kafka.Message{
		Key:   []byte(a.Slug),
		Value: value,
		Time:  a.At,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka topic %s: %w", errors.ErrNotifyFailed, k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

var _ Announcer = (*Kafka)(nil)
