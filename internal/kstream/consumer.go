// Package kstream connects the storefront to Kafka: notifications go out,
// catalog invalidation requests come in.
package kstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// InvalidateTopic receives a message whenever the upstream catalog changed.
const InvalidateTopic = "catalog.invalidate"

// InvalidationRequest is the optional JSON body of an invalidation message.
type InvalidationRequest struct {
	Reason string `json:"reason"`
}

// Invalidator drops cached catalog data.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Invalidators fans one invalidation out to several holders of catalog
// data. Every member is called even when an earlier one fails.
type Invalidators []Invalidator

// Invalidate calls every member and joins their errors.
func (is Invalidators) Invalidate(ctx context.Context) error {
	var errs []error
	for _, inv := range is {
		if err := inv.Invalidate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// KafkaReader creates a consumer-group reader for topic.
func KafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: time.Second,
	})
}

// ConsumeCatalogInvalidations invalidates the catalog cache for every message
// read until ctx is cancelled. A failed invalidation is logged and the loop
// continues; the cache TTL bounds staleness anyway.
func ConsumeCatalogInvalidations(ctx context.Context, r messageReader, inv Invalidator, logger *zap.Logger) error {
	logger.Info("kstream: consuming catalog invalidations", zap.String("topic", InvalidateTopic))
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var req InvalidationRequest
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				logger.Warn("kstream: unreadable invalidation payload", zap.Error(err))
			}
		}
		if err := inv.Invalidate(ctx); err != nil {
			logger.Warn("kstream: catalog invalidation failed", zap.Error(err))
			continue
		}
		logger.Info("kstream: catalog invalidated", zap.String("reason", req.Reason), zap.Int64("offset", msg.Offset))
	}
}
