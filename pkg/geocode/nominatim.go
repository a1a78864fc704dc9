// Package geocode wraps the Nominatim API for forward and reverse geocoding.
// Forward lookups turn place names from the analysis into coordinates when the
// model produced none; reverse lookups attach an address to each candidate.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"geointel/pkg/coords"
)

const (
	searchURL  = "https://nominatim.openstreetmap.org/search"
	reverseURL = "https://nominatim.openstreetmap.org/reverse"
)

type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient() *Client {
	return NewClientWithHTTPClient(http.DefaultClient)
}

// NewClientWithHTTPClient builds a Client around hc, for callers that need
// their own transport or timeouts.
func NewClientWithHTTPClient(hc *http.Client) *Client {
	return &Client{
		httpClient: hc,
		userAgent:  "geointel-analyzer/1.0",
	}
}

// Place holds the parts of a Nominatim result the reports care about.
type Place struct {
	Point       coords.Point `json:"point"`
	DisplayName string       `json:"display_name"`
	Type        string       `json:"type,omitempty"`
	Road        string       `json:"road,omitempty"`
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	Postcode    string       `json:"postcode,omitempty"`
	Country     string       `json:"country,omitempty"`
	CountryCode string       `json:"country_code,omitempty"`
	OsmType     string       `json:"osm_type,omitempty"`
	OsmID       int64        `json:"osm_id,omitempty"`
}

// nominatimAddress is shaped for the "address" object shared by the search
// and reverse endpoints.
type nominatimAddress struct {
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

type nominatimResult struct {
	PlaceID     int64            `json:"place_id"`
	OsmType     string           `json:"osm_type"`
	OsmID       int64            `json:"osm_id"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Class       string           `json:"class"`
	Type        string           `json:"type"`
	Importance  float64          `json:"importance"`
	AddressType string           `json:"addresstype"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

// Search resolves a free-text place query to a single best location.
func (c *Client) Search(ctx context.Context, query string) (*Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	var results []nominatimResult
	if err := c.get(ctx, fmt.Sprintf("%s?%s", searchURL, params.Encode()), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}
	return placeFromResult(results[0])
}

// Reverse returns the address for a coordinate.
func (c *Client) Reverse(ctx context.Context, p coords.Point) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(p.Lon, 'f', 6, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")

	var result nominatimResult
	if err := c.get(ctx, fmt.Sprintf("%s?%s", reverseURL, params.Encode()), &result); err != nil {
		return nil, err
	}
	if result.DisplayName == "" {
		return nil, fmt.Errorf("no address for %s", p)
	}
	return placeFromResult(result)
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func placeFromResult(r nominatimResult) (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", r.Lon, err)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return &Place{
		Point:       coords.Point{Lat: lat, Lon: lon},
		DisplayName: r.DisplayName,
		Type:        r.Type,
		Road:        r.Address.Road,
		City:        city,
		State:       r.Address.State,
		Postcode:    r.Address.Postcode,
		Country:     r.Address.Country,
		CountryCode: r.Address.CountryCode,
		OsmType:     r.OsmType,
		OsmID:       r.OsmID,
	}, nil
}
