// Package storage is the MinIO/S3 layer: uploaded photos go in, finished
// reports come back out as JSON objects.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"geointel/internal/keys"
	"geointel/internal/models"
)

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client *minio.Client
	count  int
}

// NewS3Service initializes and returns a new S3 storage service.
// It connects to the MinIO server using credentials from environment variables.
func NewS3Service() (*S3Service, error) {
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	if minioEndpoint == "" || minioAccessKey == "" || minioSecretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	log.Println("Successfully connected to MinIO endpoint:", minioEndpoint)
	return &S3Service{client: minioClient}, nil
}

// CreateBucket makes the bucket if it does not exist yet.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %v", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// PutImage stores an uploaded photo under its canonical key. Re-uploads of
// an object that already exists are skipped, which makes ingest idempotent
// for duplicate submissions of the same file.
func (s *S3Service) PutImage(ctx context.Context, bucketName, objectKey string, data []byte, contentType string) error {
	_, err := s.client.StatObject(ctx, bucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		log.Printf("Image '%s' already exists in bucket '%s'. Ignoring write operation.", objectKey, bucketName)
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %v", err)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("failed to store image in S3: %v", err)
	}

	log.Printf("Stored image in bucket '%s' with key '%s'", bucketName, objectKey)
	return nil
}

// GetImage loads an uploaded photo back out, returning the bytes and the
// content type recorded at upload time.
func (s *S3Service) GetImage(ctx context.Context, bucketName, objectKey string) ([]byte, string, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object from S3: %v", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object body: %v", err)
	}
	stat, err := object.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat object: %v", err)
	}
	return data, stat.ContentType, nil
}

// StoreReport writes a finished report as a JSON object under its canonical
// key, overwriting any earlier version for the same report ID.
func (s *S3Service) StoreReport(ctx context.Context, bucketName string, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %v", err)
	}

	objectKey := keys.Report(report.ID)
	_, err = s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store report in S3: %v", err)
	}

	log.Printf("Stored report '%s' in bucket '%s' with key '%s'", report.ID, bucketName, objectKey)
	return nil
}

// StoreReportsFromChannel drains reports from a channel and stores each one
// in the given bucket, fanning writes out across goroutines. The count is
// tracked on the receiving side so the workers never share it.
func (s *S3Service) StoreReportsFromChannel(ctx context.Context, bucketName string, reports <-chan *models.Report) {
	var wg sync.WaitGroup

	for report := range reports {
		s.count++
		wg.Add(1)
		go func(r *models.Report) {
			defer wg.Done()
			if err := s.StoreReport(ctx, bucketName, r); err != nil {
				log.Printf("Error storing report '%s': %v", r.ID, err)
			}
		}(report)
	}

	wg.Wait()
	log.Printf("Finished storing all reports from the channel. Count %d \n", s.count)
}

// StoreExport caches a rendered export of a report under its canonical key.
// Unlike uploads, exports are overwritten so regenerated files stay fresh.
func (s *S3Service) StoreExport(ctx context.Context, bucketName, id, format string, data []byte, contentType string) error {
	objectKey := keys.Export(id, format)
	_, err := s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("failed to store export in S3: %v", err)
	}
	log.Printf("Stored export in bucket '%s' with key '%s'", bucketName, objectKey)
	return nil
}

// GetReport retrieves a stored report by ID.
func (s *S3Service) GetReport(ctx context.Context, bucketName, id string) (*models.Report, error) {
	object, err := s.client.GetObject(ctx, bucketName, keys.Report(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get report from S3: %v", err)
	}
	defer object.Close()

	var report models.Report
	if err := json.NewDecoder(object).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report JSON from stream: %v", err)
	}
	return &report, nil
}
