// Package service glues the message stream to the object store: it consumes
// analysis jobs from Kafka and loads the images they reference from
// S3/MinIO via a pluggable LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"log"

	"geointel/internal/models"
)

// Iterator consumes messages from a MessageIterator, decodes each one as a
// models.AnalysisJob, loads the referenced object via LoaderFunc, and
// yields FetchedObject items on a channel. It is generic over the loaded
// item type T.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
}

// NewIterator constructs an Iterator for the provided message source and
// object loader. It spawns one goroutine per Objects() call to stream
// results.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
	}
}

// Objects streams loaded objects until the underlying Messages() channel
// closes. Malformed jobs and load failures are logged and skipped so one
// bad message never stalls the stream; offsets are committed only after
// the object has been handed downstream.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var job models.AnalysisJob
			if err := json.Unmarshal(msg.Value, &job); err != nil {
				log.Printf("Error unmarshalling job message: %v", err)
				continue
			}
			if job.Bucket == "" || job.Key == "" {
				log.Printf("Job %q missing bucket or key, skipping", job.ID)
				continue
			}

			data, err := it.loader(ctx, job.Bucket, job.Key)
			if err != nil {
				log.Printf("Error loading object for job %q: %v", job.ID, err)
				continue
			}

			out <- &FetchedObject[T]{Data: data, Job: job}

			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				log.Printf("Failed to commit offset: %v", err)
			}
		}
	}()
	return out
}
