package coords

import (
	"regexp"
	"strconv"
)

// Sources for Candidate.Source.
const (
	SourceEXIF      = "exif"
	SourceVision    = "vision"
	SourceGeocode   = "geocode"
	SourceWikipedia = "wikipedia"
)

// MaxCandidates bounds how many locations are extracted from one analysis.
const MaxCandidates = 3

const pair = `(-?\d+\.\d{4,}),\s*(-?\d+\.\d{4,})`

// Grouped patterns, tried in priority order. A grouped match that yields at
// least two valid pairs settles the extraction.
var groupedPatterns = []*regexp.Regexp{
	// Labelled primary plus two alternatives.
	regexp.MustCompile(`(?is)PRINCIPAL.*?` + pair + `.*?ALTERNATIVA\s*1.*?` + pair + `.*?ALTERNATIVA\s*2.*?` + pair),
	// Numbered list.
	regexp.MustCompile(`(?is)1.*?` + pair + `.*?2.*?` + pair + `.*?3.*?` + pair),
	// Any three pairs in sequence.
	regexp.MustCompile(`(?is)` + pair + `.*?` + pair + `.*?` + pair),
}

// Fallback patterns for loose pairs, most precise first.
var individualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(-?\d+\.\d{6,}),\s*(-?\d+\.\d{6,})`),
	regexp.MustCompile(`(-?\d+\.\d{4,}),\s*(-?\d+\.\d{4,})`),
	regexp.MustCompile(`(-?\d+\.\d{3,}),\s*(-?\d+\.\d{3,})`),
}

var candidateLabels = []string{"Primary", "Alternative 1", "Alternative 2"}

func labelFor(i int) string {
	if i < len(candidateLabels) {
		return candidateLabels[i]
	}
	return candidateLabels[len(candidateLabels)-1]
}

// Extract pulls up to MaxCandidates coordinate candidates out of free model
// output. Structured (labelled or numbered) blocks take priority; loose pairs
// are the fallback. Out-of-range pairs are skipped, never fatal.
func Extract(text string) []Candidate {
	for _, re := range groupedPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var cands []Candidate
		for i := 1; i+1 < len(m); i += 2 {
			p, ok := parsePair(m[i], m[i+1])
			if !ok {
				continue
			}
			cands = append(cands, Candidate{
				Point:  p,
				Label:  labelFor(len(cands)),
				Source: SourceVision,
			})
			if len(cands) == MaxCandidates {
				break
			}
		}
		if len(cands) >= 2 {
			return cands
		}
	}

	var cands []Candidate
	for _, re := range individualPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			p, ok := parsePair(m[1], m[2])
			if !ok || containsPoint(cands, p) {
				continue
			}
			cands = append(cands, Candidate{
				Point:  p,
				Label:  labelFor(len(cands)),
				Source: SourceVision,
			})
			if len(cands) == MaxCandidates {
				return cands
			}
		}
		if len(cands) == MaxCandidates {
			break
		}
	}
	return cands
}

func parsePair(latS, lonS string) (Point, bool) {
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil {
		return Point{}, false
	}
	p := Point{Lat: lat, Lon: lon}
	return p, p.Valid()
}

func containsPoint(cands []Candidate, p Point) bool {
	for _, c := range cands {
		if c.Lat == p.Lat && c.Lon == p.Lon {
			return true
		}
	}
	return false
}
