package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Producer publishes messages, keeping one writer per topic.
type Producer struct {
	writers   map[string]*kafkago.Writer
	transport *kafkago.Transport
	brokers   []string
	mu        sync.Mutex
}

// NewProducer creates a Producer. It fails when SASL is enabled with an
// unsupported mechanism.
func NewProducer(cfg Config) (*Producer, error) {
	p := &Producer{
		writers: make(map[string]*kafkago.Writer),
		brokers: cfg.Brokers,
	}

	if cfg.secured() || cfg.ClientID != "" {
		p.transport = &kafkago.Transport{ClientID: cfg.ClientID, TLS: cfg.tlsConfig()}
		if cfg.SASLEnabled {
			m, err := cfg.mechanism()
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			p.transport.SASL = m
		}
	}
	return p, nil
}

// Publish writes messages to topic in one batch. The span context of ctx is
// propagated in each message's headers.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	w := p.writer(topic)

	batch := make([]kafkago.Message, 0, len(messages))
	for _, msg := range messages {
		km := kafkago.Message{Key: msg.Key, Value: msg.Value}
		for k, v := range withTraceContext(ctx, msg.Headers) {
			km.Headers = append(km.Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
		batch = append(batch, km)
	}

	if err := w.WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes every writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for topic %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]*kafkago.Writer)
	return firstErr
}

func (p *Producer) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	// Hash on the key keeps every event of one candidate profile on one
	// partition, in commit order.
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
	if p.transport != nil {
		w.Transport = p.transport
	}
	p.writers[topic] = w
	return w
}
