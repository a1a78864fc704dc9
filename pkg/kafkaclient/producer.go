package kafkaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines the interface for a Kafka message writer, mirroring
// KafkaReader so producers are mockable in unit tests too.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON-encoded payloads to a single topic.
type Producer struct {
	writer KafkaWriter
}

// NewProducer creates a Producer for the given topic and broker.
func NewProducer(topic, broker string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Publish each job as soon as it arrives; ingest volume is low
		// enough that batching only adds latency.
		BatchSize: 1,
	}
	return &Producer{writer: writer}
}

// PublishJSON marshals payload and writes it under the given key.
func (p *Producer) PublishJSON(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %v", err)
	}
	log.Printf("Published message with key=%s (%d bytes)", key, len(data))
	return nil
}

// Close shuts the underlying writer down.
func (p *Producer) Close() error {
	return p.writer.Close()
}
