package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/talentqx/crewrisk/pkg/kafka"

// Handler processes one consumed message. A nil return commits the offset.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic. It fails when SASL is enabled
// with an unsupported mechanism.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024,
	}

	if cfg.secured() || cfg.ClientID != "" {
		dialer := &kafkago.Dialer{ClientID: cfg.ClientID, TLS: cfg.tlsConfig(), DualStack: true}
		if cfg.SASLEnabled {
			m, err := cfg.mechanism()
			if err != nil {
				return nil, fmt.Errorf("kafka consumer: %w", err)
			}
			dialer.SASLMechanism = m
		}
		readerCfg.Dialer = dialer
	}

	return &Consumer{
		reader:  kafkago.NewReader(readerCfg),
		handler: handler,
		tracer:  otel.Tracer(tracerName),
		logger:  logger.With(slog.String("topic", topic), slog.String("group", cfg.ConsumerGroup)),
	}, nil
}

// Start consumes until ctx is canceled. A message whose handler fails is
// logged and left uncommitted.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("consumer stopping")
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			c.logger.Error("handler error",
				slog.Int("partition", m.Partition),
				slog.Int64("offset", m.Offset),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit error",
				slog.Int("partition", m.Partition),
				slog.Int64("offset", m.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}

	ctx, span := c.tracer.Start(traceContext(ctx, msg.Headers), "kafka.consume "+m.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", m.Topic),
			attribute.Int("messaging.kafka.partition", m.Partition),
			attribute.Int64("messaging.kafka.offset", m.Offset),
		),
	)
	defer span.End()

	if err := c.handler(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Close closes the reader and leaves the group.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
