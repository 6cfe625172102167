package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/cache"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
)

// StoreEventConsumer listens to store-settings events and keeps the local
// store cache coherent. A store that changes its working hours must not be
// served stale slots by this replica.
type StoreEventConsumer struct {
	consumer *kafka.Consumer
	cache    *cache.StoreCache
	logger   *zap.Logger
}

// NewStoreEventConsumer creates a new consumer for store events.
func NewStoreEventConsumer(
	brokers []string,
	groupID string,
	storeCache *cache.StoreCache,
	logger *zap.Logger,
) *StoreEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicStoreEvents, logger)
	return &StoreEventConsumer{
		consumer: consumer,
		cache:    storeCache,
		logger:   logger,
	}
}

// Start begins consuming store events. It blocks until the context is cancelled.
func (c *StoreEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the appropriate handler.
func (c *StoreEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from store topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	switch {
	case strings.EqualFold(cloudEvent.Type, StoreUpdated):
		return c.handleStoreUpdated(ctx, cloudEvent)

	default:
		c.logger.Debug("ignoring unhandled store event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// handleStoreUpdated drops the cached settings for the updated store.
func (c *StoreEventConsumer) handleStoreUpdated(_ context.Context, ce kafka.CloudEvent) error {
	var event StoreUpdatedEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse StoreUpdatedEvent data", zap.Error(err))
		return err
	}

	c.cache.Invalidate(event.StoreID)
	c.logger.Info("store cache invalidated",
		zap.String("store_id", event.StoreID.String()),
	)
	return nil
}

// Close closes the underlying Kafka consumer.
func (c *StoreEventConsumer) Close() error {
	return c.consumer.Close()
}
