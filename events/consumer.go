package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/models"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func InitConsumer(cfg config.KafkaConfig, logger *zap.Logger) (sarama.Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Return.Errors = true
	sc.Consumer.Retry.Backoff = 1 * time.Second

	consumer, err := sarama.NewConsumer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Info("Kafka consumer initialized", zap.Strings("brokers", cfg.Brokers))
	return consumer, nil
}

type Handler interface {
	Handle(ctx context.Context, event models.OrderEvent) error
}

// Consumer reads order events from every partition of a topic, starting at
// the newest offset.
type Consumer struct {
	consumer   sarama.Consumer
	topic      string
	handler    Handler
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewConsumer(consumer sarama.Consumer, topic string, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{
		consumer:   consumer,
		topic:      topic,
		handler:    handler,
		maxRetries: 3,
		backoff:    time.Second,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled or a partition cannot be opened.
func (c *Consumer) Run(ctx context.Context) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}

	pcs := make([]sarama.PartitionConsumer, 0, len(partitions))
	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, sarama.OffsetNewest)
		if err != nil {
			for _, open := range pcs {
				open.Close()
			}
			return fmt.Errorf("failed to consume partition %d: %w", partition, err)
		}
		pcs = append(pcs, pc)
	}

	c.logger.Info("Kafka consumer started",
		zap.String("topic", c.topic),
		zap.Int("partitions", len(pcs)),
	)

	var wg sync.WaitGroup
	for _, pc := range pcs {
		wg.Add(1)
		go func(pc sarama.PartitionConsumer) {
			defer wg.Done()
			c.consumePartition(ctx, pc)
		}(pc)
	}
	wg.Wait()
	return nil
}

func (c *Consumer) consumePartition(ctx context.Context, pc sarama.PartitionConsumer) {
	defer pc.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-pc.Messages():
			if !ok {
				return
			}
			if err := c.handleWithRetry(ctx, message); err != nil {
				c.logger.Error("Failed to handle message after retries",
					zap.Int32("partition", message.Partition),
					zap.Int64("offset", message.Offset),
					zap.Error(err),
				)
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			c.logger.Error("Kafka consumer error", zap.Error(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.handleMessage(message)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < c.maxRetries {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Warn("Retrying message handling",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Consumer) handleMessage(message *sarama.ConsumerMessage) error {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), consumerCarrier(message.Headers))
	ctx, span := otel.Tracer("marketplace").Start(ctx, "ProcessOrderEvent")
	defer span.End()

	var event models.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// a malformed payload never parses, so retrying is pointless
		span.RecordError(err)
		c.logger.Error("Dropping undecodable event",
			zap.Int64("offset", message.Offset),
			zap.Error(err),
		)
		return nil
	}

	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.Int("order.id", event.OrderID),
	)
	if err := c.handler.Handle(ctx, event); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
