package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/events"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const Topic = "marketplace-events"

var forwarded = []domain.EventType{
	domain.EventCartItemAdded,
	domain.EventCartItemUpdated,
	domain.EventCartItemRemoved,
	domain.EventCartCleared,
	domain.EventCheckoutCompleted,
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards bus events to Kafka, keyed by user id so a user's
// events stay ordered within a partition.
type KafkaPublisher struct {
	timeout time.Duration
	writer  messageWriter
	log     zerolog.Logger
}

func NewKafkaPublisher(log zerolog.Logger, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(log, w)
}

func newKafkaPublisher(log zerolog.Logger, w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		timeout: 5 * time.Second,
		writer:  w,
		log:     log.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Attach subscribes the publisher to every forwarded event type.
// The returned func detaches it again.
func (p *KafkaPublisher) Attach(bus *events.Bus) (detach func()) {
	unsubs := make([]func(), 0, len(forwarded))
	for _, t := range forwarded {
		unsubs = append(unsubs, bus.Subscribe(t, p.handle))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (p *KafkaPublisher) handle(ctx context.Context, e domain.Event) {
	if err := p.Publish(ctx, e); err != nil {
		p.log.Error().Err(err).
			Str("event_type", string(e.Type)).
			Str("user_id", e.UserID).
			Msg("failed to forward event")
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
