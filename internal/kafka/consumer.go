package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

const readRetryDelay = time.Second

type Consumer struct {
	reader MessageReader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

func NewConsumerWithReader(reader MessageReader, log *logger.Logger) *Consumer {
	return &Consumer{reader: reader, logger: log}
}

// Start consumes event changes until ctx is cancelled or the reader closes.
// Undecodable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.EventChange)) error {
	c.logger.Info("KAFKA", "Event change consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readRetryDelay):
			}
			continue
		}

		var change models.EventChange
		if err := json.Unmarshal(msg.Value, &change); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal event change at offset %d: %v", msg.Offset, err))
			continue
		}

		c.logger.LogKafka("RECEIVE", msg.Topic, fmt.Sprintf("%s %s", change.Action, change.EventID))
		handler(change)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
