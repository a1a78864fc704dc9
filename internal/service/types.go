package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"geointel/internal/models"
)

// MessageIterator is the contract for consuming messages from a Kafka topic.
// It lets the Iterator stay ignorant of how the consumer connection is
// managed; implementations own the consumer lifecycle.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped or the
	// underlying source is exhausted.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed. An error
	// is returned if the commit fails; implementations using auto-commit may
	// make this a no-op.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes an object of type T from the object store,
// given the bucket and key a job points at. Implementations should be
// read-only and honor ctx for cancellation.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs data loaded from the object store with the analysis
// job that requested it. T may be a value or pointer type.
type FetchedObject[T any] struct {
	// Data is the decoded object, loaded from the object store.
	Data T
	// Job is the analysis job that referenced the object.
	Job models.AnalysisJob
}
