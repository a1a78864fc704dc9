package models

import "time"

// AnalysisJob is the Kafka message the ingest server publishes for each
// stored upload. The analyzer loads the image back out of the bucket/key the
// job points at.
type AnalysisJob struct {
	ID          string    `json:"id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
