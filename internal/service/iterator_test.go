package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"geointel/internal/models"
)

// mockMessages implements MessageIterator over a fixed set of messages.
type mockMessages struct {
	msgs      chan kafka.Message
	committed []int64
}

func newMockMessages(values ...[]byte) *mockMessages {
	m := &mockMessages{msgs: make(chan kafka.Message, len(values))}
	for i, v := range values {
		m.msgs <- kafka.Message{Topic: "analysis-jobs", Offset: int64(i), Value: v}
	}
	close(m.msgs)
	return m
}

func (m *mockMessages) Messages() <-chan kafka.Message { return m.msgs }

func (m *mockMessages) CommitOffset(_ context.Context, msg kafka.Message) error {
	m.committed = append(m.committed, msg.Offset)
	return nil
}

func jobBytes(t *testing.T, job models.AnalysisJob) []byte {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshalling job: %v", err)
	}
	return data
}

func TestIterator_Objects(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	src := newMockMessages(
		jobBytes(t, models.AnalysisJob{ID: "j1", Bucket: "photos", Key: "uploads/aa/one.jpg"}),
		[]byte("{not json"),
		jobBytes(t, models.AnalysisJob{ID: "j2", Bucket: "photos"}), // no key
		jobBytes(t, models.AnalysisJob{ID: "j3", Bucket: "photos", Key: "uploads/bb/missing.jpg"}),
		jobBytes(t, models.AnalysisJob{ID: "j4", Bucket: "photos", Key: "uploads/cc/two.jpg"}),
	)

	loader := func(_ context.Context, bucket, key string) ([]byte, error) {
		if key == "uploads/bb/missing.jpg" {
			return nil, errors.New("object not found")
		}
		return []byte(bucket + "/" + key), nil
	}

	var got []*FetchedObject[[]byte]
	for obj := range NewIterator(src, loader).Objects(ctx) {
		got = append(got, obj)
	}

	if len(got) != 2 {
		t.Fatalf("got %d objects, want 2 (bad JSON, missing key and load failure skipped)", len(got))
	}
	if got[0].Job.ID != "j1" || got[1].Job.ID != "j4" {
		t.Errorf("job IDs = %q, %q", got[0].Job.ID, got[1].Job.ID)
	}
	if string(got[0].Data) != "photos/uploads/aa/one.jpg" {
		t.Errorf("loaded data = %q", got[0].Data)
	}

	// Only successfully delivered jobs get their offsets committed.
	if len(src.committed) != 2 || src.committed[0] != 0 || src.committed[1] != 4 {
		t.Errorf("committed offsets = %v, want [0 4]", src.committed)
	}
}
