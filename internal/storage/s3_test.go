package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"geointel/internal/models"
	"geointel/pkg/coords"
)

// fakeS3 is just enough of the S3 wire protocol for the minio client: the
// bucket location query, PUTs recorded by path and GETs served from a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("location") {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`)
		return
	}

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.URL.Path] = data
		f.puts = append(f.puts, r.URL.Path)
		f.mu.Unlock()
		w.Header().Set("ETag", `"0"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		f.mu.Lock()
		data, ok := f.objects[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>key does not exist</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"0"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) putPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.puts...)
}

func newTestService(t *testing.T, f *fakeS3) *S3Service {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	t.Setenv("MINIO_ENDPOINT", strings.TrimPrefix(srv.URL, "http://"))
	t.Setenv("MINIO_ACCESS_KEY", "test-access")
	t.Setenv("MINIO_SECRET_KEY", "test-secret")
	t.Setenv("MINIO_USE_SSL", "false")

	s, err := NewS3Service()
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return s
}

func TestStoreReportsFromChannel(t *testing.T) {
	f := newFakeS3()
	s := newTestService(t, f)

	reports := make(chan *models.Report)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.StoreReportsFromChannel(context.Background(), "reports-bucket", reports)
	}()

	want := map[string]bool{}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("r-%d", i)
		reports <- &models.Report{ID: id}
		want["/reports-bucket/reports/"+id+".json"] = true
	}
	close(reports)
	<-done

	puts := f.putPaths()
	if len(puts) != 3 {
		t.Fatalf("stored %d objects, want 3: %v", len(puts), puts)
	}
	for _, p := range puts {
		if !want[p] {
			t.Errorf("unexpected object path %q", p)
		}
	}
	if s.count != 3 {
		t.Errorf("count = %d, want 3", s.count)
	}
}

func TestStoreExport(t *testing.T) {
	f := newFakeS3()
	s := newTestService(t, f)

	err := s.StoreExport(context.Background(), "reports-bucket", "r-7", "CSV", []byte("label,lat\n"), "text/csv")
	if err != nil {
		t.Fatalf("storing export: %v", err)
	}

	puts := f.putPaths()
	if len(puts) != 1 || puts[0] != "/reports-bucket/exports/r-7.csv" {
		t.Errorf("puts = %v, want one write to exports/r-7.csv", puts)
	}
}

func TestGetReport(t *testing.T) {
	f := newFakeS3()
	s := newTestService(t, f)

	stored := &models.Report{
		ID: "r-9",
		Candidates: []coords.Candidate{
			{Point: coords.Point{Lat: 48.8584, Lon: 2.2945}, Label: "Primary", Source: coords.SourceVision},
		},
	}
	data, err := json.Marshal(stored)
	if err != nil {
		t.Fatal(err)
	}
	f.objects["/reports-bucket/reports/r-9.json"] = data

	report, err := s.GetReport(context.Background(), "reports-bucket", "r-9")
	if err != nil {
		t.Fatalf("getting report: %v", err)
	}
	if report.ID != "r-9" || len(report.Candidates) != 1 {
		t.Errorf("report = %+v", report)
	}

	if _, err := s.GetReport(context.Background(), "reports-bucket", "missing"); err == nil {
		t.Error("expected an error for a missing report")
	}
}
