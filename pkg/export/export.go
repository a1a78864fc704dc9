// Package export renders finished reports as CSV, JSON and KML for use in
// spreadsheets, other tooling and Google Earth.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"geointel/internal/models"
)

// WriteCSV writes one row per candidate.
func WriteCSV(w io.Writer, r *models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "latitude", "longitude", "confidence", "source", "address"}); err != nil {
		return err
	}
	for _, c := range r.Candidates {
		row := []string{
			c.Label,
			strconv.FormatFloat(c.Lat, 'f', 6, 64),
			strconv.FormatFloat(c.Lon, 'f', 6, 64),
			strconv.FormatFloat(c.Confidence, 'f', 2, 64),
			c.Source,
			c.Address,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full report, indented.
func WriteJSON(w io.Writer, r *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// KML coordinates go lon,lat,altitude.
var kmlTemplate = template.Must(template.New("kml").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>GeoIntel Analysis {{.ID}}</name>
    <description>Candidate locations identified by image analysis</description>
{{- range .Candidates}}
    <Placemark>
      <name>{{.Label}}</name>
      <description>source: {{.Source}}</description>
      <Point>
        <coordinates>{{printf "%.6f" .Lon}},{{printf "%.6f" .Lat}},0</coordinates>
      </Point>
    </Placemark>
{{- end}}
  </Document>
</kml>
`))

// WriteKML writes a KML document with one Placemark per candidate.
func WriteKML(w io.Writer, r *models.Report) error {
	if err := kmlTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("rendering KML: %w", err)
	}
	return nil
}
