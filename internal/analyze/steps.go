// Package analyze holds the pipeline steps that turn one loaded image into
// a finished report. The analyzer service and the geolocate CLI run the
// same steps; only the plumbing around them differs.
package analyze

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"geointel/internal/models"
	"geointel/internal/pipeline"
	"geointel/pkg/coords"
	"geointel/pkg/exifmeta"
	"geointel/pkg/geo"
	"geointel/pkg/geocode"
	"geointel/pkg/links"
	"geointel/pkg/vision"
	"geointel/pkg/wikipedia"
)

// DedupeEpsilonMeters is the separation under which two candidates count as
// the same place.
const DedupeEpsilonMeters = 150

// Analysis is the unit of work flowing through the pipeline: the image
// loaded for one job plus the report being assembled. Steps in the same
// stage write to disjoint report fields.
type Analysis struct {
	Job         models.AnalysisJob
	Image       []byte
	ContentType string
	Report      *models.Report
}

// New seeds an Analysis for one image, hashing the content for the report.
func New(job models.AnalysisJob, image []byte, contentType string) *Analysis {
	hash := sha256.Sum256(image)
	return &Analysis{
		Job:         job,
		Image:       image,
		ContentType: contentType,
		Report: &models.Report{
			ID:        job.ID,
			ImageKey:  job.Key,
			ImageHash: hex.EncodeToString(hash[:]),
			CreatedAt: time.Now().UTC(),
		},
	}
}

// ExifStep decodes the image's EXIF block into the report.
func ExifStep() pipeline.Step[Analysis] {
	return pipeline.NamedStep("exif", func(_ context.Context, a *Analysis) error {
		meta, err := exifmeta.Extract(bytes.NewReader(a.Image))
		if err != nil {
			return fmt.Errorf("reading EXIF: %w", err)
		}
		a.Report.Meta = meta
		return nil
	})
}

// VisionStep sends the image to the vision model and records the raw
// analysis text.
func VisionStep(vc vision.Client) pipeline.Step[Analysis] {
	return pipeline.NamedStep("vision", func(ctx context.Context, a *Analysis) error {
		res, err := vc.Analyze(ctx, a.Image, a.ContentType)
		if err != nil {
			return fmt.Errorf("vision analysis: %w", err)
		}
		a.Report.Analysis = res.Text
		a.Report.ModelUsed = res.Model
		return nil
	})
}

// CandidatesStep assembles the candidate list: EXIF GPS first, then
// coordinates parsed from the analysis text, then geocoding fallbacks when
// the model named places but committed to no coordinates.
func CandidatesStep(geocoder *geocode.Client, landmarks *wikipedia.LandmarkService) pipeline.Step[Analysis] {
	return pipeline.NamedStep("candidates", func(ctx context.Context, a *Analysis) error {
		var cands []coords.Candidate
		if gps, ok := a.Report.Meta.GPSCandidate(); ok {
			cands = append(cands, gps)
		}

		extracted := coords.Extract(a.Report.Analysis)
		cands = append(cands, extracted...)

		if len(extracted) == 0 {
			cands = append(cands, fallbackCandidates(ctx, a.Report.Analysis, geocoder, landmarks)...)
		}

		cands = coords.Dedupe(cands, DedupeEpsilonMeters)
		a.Report.Candidates = cands
		a.Report.Distances = coords.PairwiseDistances(cands)
		return nil
	})
}

// fallbackCandidates resolves the COUNTRY/CITY/LANDMARK lines through
// Wikipedia and Nominatim. Failures just mean fewer candidates.
func fallbackCandidates(ctx context.Context, analysisText string, geocoder *geocode.Client, landmarks *wikipedia.LandmarkService) []coords.Candidate {
	var cands []coords.Candidate

	if name := geo.Landmark(analysisText); name != "" && landmarks != nil {
		if cand, err := landmarks.Locate(ctx, name); err == nil {
			cands = append(cands, cand)
		} else {
			log.Printf("Landmark lookup for %q failed: %v", name, err)
		}
	}

	if query := geo.PlaceQuery(analysisText); query != "" && geocoder != nil {
		if place, err := geocoder.Search(ctx, query); err == nil {
			cands = append(cands, coords.Candidate{
				Point:      place.Point,
				Label:      "Geocoded place",
				Source:     coords.SourceGeocode,
				Confidence: 0.4,
				Address:    place.DisplayName,
			})
		} else {
			log.Printf("Geocoding %q failed: %v", query, err)
		}
	}

	return cands
}

// AddressStep reverse-geocodes the primary candidate. It writes back into
// the candidate list, so it must run in a stage of its own, after LinksStep.
func AddressStep(geocoder *geocode.Client) pipeline.Step[Analysis] {
	return pipeline.NamedStep("address", func(ctx context.Context, a *Analysis) error {
		primary, ok := a.Report.Primary()
		if !ok {
			return nil
		}
		place, err := geocoder.Reverse(ctx, primary.Point)
		if err != nil {
			return fmt.Errorf("reverse geocoding %s: %w", primary.Point, err)
		}
		a.Report.Address = place
		if a.Report.Candidates[0].Address == "" {
			a.Report.Candidates[0].Address = place.DisplayName
		}
		return nil
	})
}

// LinksStep attaches the verification URLs for every candidate.
func LinksStep() pipeline.Step[Analysis] {
	return pipeline.NamedStep("links", func(_ context.Context, a *Analysis) error {
		if !a.Report.Located() {
			return nil
		}
		verification := make(map[string]links.Verification, len(a.Report.Candidates))
		for _, c := range a.Report.Candidates {
			verification[c.Label] = links.ForPoint(c.Point)
		}
		a.Report.Verification = verification
		a.Report.ReverseImageSearch = links.ReverseImageSearch()
		return nil
	})
}
