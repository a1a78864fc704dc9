// Package wikipedia resolves landmark names to coordinates through the
// MediaWiki API. When the model names a landmark but gives no usable numbers,
// the article's registered coordinates are a cheap second opinion.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const apiURL = "https://en.wikipedia.org/w/api.php"

type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient() *Client {
	return &Client{
		httpClient: http.DefaultClient,
		userAgent:  "geointel-analyzer/1.0",
	}
}

// FetchCoordinates queries prop=coordinates for a page title, following
// redirects so informal landmark names still resolve.
func (c *Client) FetchCoordinates(ctx context.Context, title string) (*CoordinatesResponse, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "coordinates")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", apiURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var apiResp CoordinatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	return &apiResp, nil
}
