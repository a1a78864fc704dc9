package wikipedia

import (
	"context"
	"fmt"

	"geointel/pkg/coords"
)

// LandmarkService turns landmark names into location candidates.
type LandmarkService struct {
	client *Client
}

func NewLandmarkService(client *Client) *LandmarkService {
	return &LandmarkService{client: client}
}

// Locate resolves a landmark name to its article's primary coordinate.
// Non-Earth coordinates (astronomy articles) are rejected.
func (s *LandmarkService) Locate(ctx context.Context, name string) (coords.Candidate, error) {
	resp, err := s.client.FetchCoordinates(ctx, name)
	if err != nil {
		return coords.Candidate{}, err
	}

	for _, page := range resp.Query.Pages {
		if page.Missing != nil {
			continue
		}
		for _, pc := range page.Coordinates {
			if pc.Globe != "" && pc.Globe != "earth" {
				continue
			}
			p := coords.Point{Lat: pc.Lat, Lon: pc.Lon}
			if !p.Valid() {
				continue
			}
			return coords.Candidate{
				Point:      p,
				Label:      page.Title,
				Source:     coords.SourceWikipedia,
				Confidence: 0.6,
			}, nil
		}
	}
	return coords.Candidate{}, fmt.Errorf("no coordinates for %q", name)
}
