// geolocate is the one-shot CLI: analyze one or more photos straight from
// disk, print where they were taken and optionally export the reports.
// With several photos of the same scene it also reports the consensus
// location across images.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"geointel/internal/analyze"
	"geointel/internal/env"
	"geointel/internal/models"
	"geointel/internal/pipeline"
	"geointel/pkg/coords"
	"geointel/pkg/export"
	"geointel/pkg/geocode"
	"geointel/pkg/graceful"
	"geointel/pkg/vision"
	"geointel/pkg/wikipedia"
)

func main() {
	backend := flag.String("backend", "gemini", "vision backend: gemini or openai")
	formats := flag.String("format", "", "comma-separated export formats: json, csv, kml")
	outDir := flag.String("out", ".", "directory for exported reports")
	radius := flag.Float64("radius", 5, "consensus radius in kilometers for multi-image runs")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: geolocate [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	visionClient, err := newVisionClient(ctx, *backend)
	if err != nil {
		log.Fatalf("Failed to create vision client: %v", err)
	}
	geocoder := geocode.NewClient()
	landmarks := wikipedia.NewLandmarkService(wikipedia.NewClient())

	var analyses []*analyze.Analysis
	p := pipeline.New(
		pipeline.NewStage(analyze.ExifStep(), analyze.VisionStep(visionClient)),
		pipeline.NewStage(analyze.CandidatesStep(geocoder, landmarks)),
		pipeline.NewStage(analyze.LinksStep()),
		pipeline.NewStage(analyze.AddressStep(geocoder)),
	).OnDone(func(_ context.Context, a *analyze.Analysis) {
		analyses = append(analyses, a)
	})

	in := make(chan *analyze.Analysis)
	go func() {
		defer close(in)
		for _, path := range flag.Args() {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Skipping %s: %v", path, err)
				continue
			}
			job := models.AnalysisJob{
				ID:          uuid.NewString(),
				Key:         filepath.Base(path),
				ContentType: http.DetectContentType(data),
				SubmittedAt: time.Now().UTC(),
			}
			select {
			case in <- analyze.New(job, data, job.ContentType):
			case <-ctx.Done():
				return
			}
		}
	}()
	p.Process(ctx, in)

	if len(analyses) == 0 {
		log.Fatal("No images could be analyzed.")
	}

	applyConsensus(ctx, analyses, *radius, geocoder)

	for _, a := range analyses {
		printReport(a)
		if *formats != "" {
			if err := exportReport(a, *outDir, *formats); err != nil {
				log.Printf("Exporting %s failed: %v", a.Job.Key, err)
			}
		}
	}
}

func newVisionClient(ctx context.Context, backend string) (vision.Client, error) {
	switch backend {
	case "openai":
		return vision.NewOpenAIClient(
			os.Getenv("OPENAI_BASE_URL"),
			env.MustGetEnv("OPENAI_API_KEY"),
			os.Getenv("OPENAI_MODEL"),
		)
	default:
		return vision.NewGeminiClient(ctx, env.MustGetEnv("GEMINI_API_KEY"))
	}
}

// applyConsensus combines the primary estimates of a multi-image run. When
// the images agree within radiusKm the combined point, and its address, go
// on every report.
func applyConsensus(ctx context.Context, analyses []*analyze.Analysis, radiusKm float64, geocoder *geocode.Client) {
	if len(analyses) < 2 {
		return
	}

	var points []coords.Point
	for _, a := range analyses {
		if primary, ok := a.Report.Primary(); ok {
			points = append(points, primary.Point)
		}
	}

	center, ok := coords.Consensus(points, radiusKm)
	if !ok {
		log.Printf("No consensus: estimates across %d images do not agree within %.1f km", len(analyses), radiusKm)
		return
	}

	fmt.Printf("\nConsensus across %d images: %s\n", len(points), center)
	if place, err := geocoder.Reverse(ctx, center); err == nil {
		fmt.Printf("Consensus address: %s\n", place.DisplayName)
	}
	for _, a := range analyses {
		a.Report.Consensus = &center
	}
}

func printReport(a *analyze.Analysis) {
	r := a.Report
	fmt.Printf("\n=== %s ===\n", a.Job.Key)
	fmt.Printf("Model: %s\n", r.ModelUsed)
	if r.Meta != nil && r.Meta.GPS != nil {
		fmt.Printf("EXIF GPS: %s\n", r.Meta.GPS)
	}

	if !r.Located() {
		fmt.Println("No location could be determined.")
		return
	}
	for _, c := range r.Candidates {
		fmt.Printf("%-14s %s (source: %s)\n", c.Label+":", c.Point, c.Source)
		if c.Address != "" {
			fmt.Printf("               %s\n", c.Address)
		}
	}
	for _, d := range r.Distances {
		fmt.Printf("Distance %s to %s: %.2f km (%.2f mi)\n", d.From, d.To, d.Km, d.Miles)
	}
	if v, ok := r.Verification[r.Candidates[0].Label]; ok {
		fmt.Printf("Verify: %s\n", v.Maps["Google Maps"])
	}
}

// exportReport writes the report next to the out directory in every
// requested format, named after the image file.
func exportReport(a *analyze.Analysis, outDir, formats string) error {
	stem := strings.TrimSuffix(a.Job.Key, filepath.Ext(a.Job.Key))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for _, format := range strings.Split(formats, ",") {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}

		path := filepath.Join(outDir, stem+"."+format)
		f, err := os.Create(path)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			err = export.WriteJSON(f, a.Report)
		case "csv":
			err = export.WriteCSV(f, a.Report)
		case "kml":
			err = export.WriteKML(f, a.Report)
		default:
			f.Close()
			os.Remove(path)
			return fmt.Errorf("unknown export format %q", format)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.Printf("Wrote %s", path)
	}
	return nil
}
