// The server accepts photo uploads over HTTP, stores them in MinIO and
// publishes an analysis job to Kafka for the analyzer to pick up.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"geointel/internal/env"
	"geointel/internal/keys"
	"geointel/internal/models"
	"geointel/internal/reportstore"
	"geointel/internal/storage"
	"geointel/pkg/export"
	"geointel/pkg/graceful"
	"geointel/pkg/kafkaclient"
)

// maxUploadBytes bounds one multipart upload. Phone photos run 5-15MB.
const maxUploadBytes = 32 << 20

type server struct {
	s3           *storage.S3Service
	producer     *kafkaclient.Producer
	pgStore      *reportstore.PostgresStore
	photoBucket  string
	reportBucket string
}

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	photoBucket := env.GetEnvDefault("PHOTO_BUCKET", "geointel-photos")
	reportBucket := env.GetEnvDefault("REPORT_BUCKET", "geointel-reports")
	addr := env.GetEnvDefault("HTTP_ADDR", ":8080")

	s3Service, err := storage.NewS3Service()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s3Service.CreateBucket(ctx, photoBucket, ""); err != nil {
		log.Fatal(err)
	}

	producer := kafkaclient.NewProducer(kafkaTopic, kafkaBroker)
	defer producer.Close()

	srv := &server{
		s3:           s3Service,
		producer:     producer,
		photoBucket:  photoBucket,
		reportBucket: reportBucket,
	}

	if dsn := env.GetEnvDefault("DATABASE_URL", ""); dsn != "" {
		srv.pgStore, err = reportstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer srv.pgStore.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", srv.handleUpload)
	mux.HandleFunc("GET /reports/{id}", srv.handleGetReport)
	mux.HandleFunc("GET /reports/{id}/export", srv.handleExportReport)
	mux.HandleFunc("GET /reports", srv.handleListReports)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}

// handleUpload reads a multipart photo, stores it and queues an analysis
// job. The response carries the job ID the client polls reports with.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("photo")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing 'photo' form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusBadRequest, "reading upload failed")
		return
	}
	if len(data) == 0 {
		httpError(w, http.StatusBadRequest, "empty upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	hash := sha256.Sum256(data)
	objectKey := keys.Upload(hex.EncodeToString(hash[:]), header.Filename)

	if err := s.s3.PutImage(r.Context(), s.photoBucket, objectKey, data, contentType); err != nil {
		log.Printf("Storing upload failed: %v", err)
		httpError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}

	job := models.AnalysisJob{
		ID:          uuid.NewString(),
		Bucket:      s.photoBucket,
		Key:         objectKey,
		ContentType: contentType,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.producer.PublishJSON(r.Context(), job.ID, job); err != nil {
		log.Printf("Publishing job failed: %v", err)
		httpError(w, http.StatusInternalServerError, "queueing analysis failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":  job.ID,
		"key": objectKey,
	})
}

// handleGetReport serves a finished report from the object store.
func (s *server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.fetchReport(r.Context(), r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// fetchReport tries the object store first and falls back to the Postgres
// index, which keeps reports readable while the object store is degraded.
func (s *server) fetchReport(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.s3.GetReport(ctx, s.reportBucket, id)
	if err == nil {
		return report, nil
	}
	if s.pgStore == nil {
		return nil, err
	}
	log.Printf("Object store read for report %q failed, trying index: %v", id, err)
	return s.pgStore.Get(ctx, id)
}

// handleExportReport renders a report as json, csv or kml. Rendered exports
// are cached back into the report bucket on a best-effort basis.
func (s *server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}

	report, err := s.fetchReport(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusNotFound, "report not found")
		return
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "json":
		contentType = "application/json"
		err = export.WriteJSON(&buf, report)
	case "csv":
		contentType = "text/csv"
		err = export.WriteCSV(&buf, report)
	case "kml":
		contentType = "application/vnd.google-earth.kml+xml"
		err = export.WriteKML(&buf, report)
	default:
		httpError(w, http.StatusBadRequest, "unknown export format: "+format)
		return
	}
	if err != nil {
		log.Printf("Rendering %s export for report %q failed: %v", format, id, err)
		httpError(w, http.StatusInternalServerError, "rendering export failed")
		return
	}

	if err := s.s3.StoreExport(r.Context(), s.reportBucket, id, format, buf.Bytes(), contentType); err != nil {
		log.Printf("Caching %s export for report %q failed: %v", format, id, err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Writing export failed: %v", err)
	}
}

// handleListReports lists recent reports from the Postgres index.
func (s *server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.pgStore == nil {
		httpError(w, http.StatusNotImplemented, "report index not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	reports, err := s.pgStore.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("Listing reports failed: %v", err)
		httpError(w, http.StatusInternalServerError, "listing reports failed")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Writing response failed: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
