// Package exifmeta reads EXIF metadata out of uploaded images. Embedded GPS
// positions are the strongest location signal available and are surfaced as a
// full-confidence candidate ahead of anything a model infers.
package exifmeta

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"geointel/pkg/coords"
)

// Metadata is the decoded EXIF view of one image. GPS is nil when the image
// carries no position; Present is false when there is no EXIF block at all.
// Both are normal conditions for callers, not errors.
type Metadata struct {
	Present bool              `json:"present"`
	Make    string            `json:"make,omitempty"`
	Model   string            `json:"model,omitempty"`
	Taken   time.Time         `json:"taken,omitempty"`
	GPS     *coords.Point     `json:"gps,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Tags that bloat the field map without helping an analyst.
var skippedFields = map[exif.FieldName]struct{}{
	exif.MakerNote:          {},
	exif.UserComment:        {},
	"InteroperabilityIndex": {},
}

type fieldCollector struct {
	fields map[string]string
}

func (c *fieldCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if _, skip := skippedFields[name]; skip {
		return nil
	}
	val := strings.TrimSpace(tag.String())
	if val != "" && val != `""` {
		c.fields[string(name)] = strings.Trim(val, `"`)
	}
	return nil
}

// Extract decodes the EXIF block of an image. Images without EXIF (screenshots,
// stripped uploads) yield an empty Metadata and no error.
func Extract(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// No EXIF segment, or one too damaged to parse.
		return &Metadata{}, nil
	}

	meta := &Metadata{Present: true, Fields: make(map[string]string)}

	collector := &fieldCollector{fields: meta.Fields}
	_ = x.Walk(collector)

	if tag, err := x.Get(exif.Make); err == nil {
		meta.Make, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		meta.Model, _ = tag.StringVal()
	}
	if taken, err := x.DateTime(); err == nil {
		meta.Taken = taken
	}

	if lat, lon, err := x.LatLong(); err == nil {
		p := coords.Point{Lat: lat, Lon: lon}
		if p.Valid() {
			meta.GPS = &p
		}
	}

	return meta, nil
}

// GPSCandidate converts an embedded GPS position into a location candidate.
// ok is false when the metadata has no position.
func (m *Metadata) GPSCandidate() (coords.Candidate, bool) {
	if m == nil || m.GPS == nil {
		return coords.Candidate{}, false
	}
	return coords.Candidate{
		Point:      *m.GPS,
		Label:      "EXIF GPS",
		Source:     coords.SourceEXIF,
		Confidence: 1,
	}, true
}
