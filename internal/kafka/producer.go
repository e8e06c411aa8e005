package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishChange streams an event change keyed by event id, so changes to one
// event stay ordered within a partition.
func (p *Producer) PublishChange(ctx context.Context, change models.EventChange) error {
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode event change: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.EventID),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(change.Action)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish event change: %w", err)
	}

	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("%s %s", change.Action, change.EventID))
	return nil
}

func (p *Producer) EventChanged(ctx context.Context, change models.EventChange) error {
	return p.PublishChange(ctx, change)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
