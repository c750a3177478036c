package testutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// KafkaContainer is a single-node broker for integration tests.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

// NewKafkaContainer starts a broker. Callers register Cleanup themselves.
func NewKafkaContainer(ctx context.Context, t *testing.T) *KafkaContainer {
	t.Helper()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		kafka.WithClusterID("crewrisk-test"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	return &KafkaContainer{Container: container, Brokers: brokers}
}

// CreateTopics creates single-partition topics through the cluster controller.
// Auto-created topics race the first consumer join, so tests create them up front.
func (kc *KafkaContainer) CreateTopics(t *testing.T, topics ...string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", kc.Brokers[0])
	if err != nil {
		t.Fatalf("failed to dial kafka: %v", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		t.Fatalf("failed to find kafka controller: %v", err)
	}
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		t.Fatalf("failed to dial kafka controller: %v", err)
	}
	defer ctrl.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := ctrl.CreateTopics(configs...); err != nil {
		t.Fatalf("failed to create topics %v: %v", topics, err)
	}
}

// Cleanup terminates the container.
func (kc *KafkaContainer) Cleanup(t *testing.T) {
	t.Helper()

	if kc.Container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := kc.Container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate kafka container: %v", err)
	}
}
