package wikipedia

// CoordinatesResponse is the top-level struct for a prop=coordinates query.
type CoordinatesResponse struct {
	Query CoordinatesQuery `json:"query"`
}

// CoordinatesQuery contains the pages map keyed by page ID; missing pages
// appear under the key "-1".
type CoordinatesQuery struct {
	Pages map[string]CoordinatesPage `json:"pages"`
}

// CoordinatesPage represents a single page with its registered coordinates.
type CoordinatesPage struct {
	PageID      int              `json:"pageid"`
	Title       string           `json:"title"`
	Missing     *string          `json:"missing,omitempty"`
	Coordinates []PageCoordinate `json:"coordinates"`
}

// PageCoordinate is one coordinate entry; primary entries carry the article's
// main subject location.
type PageCoordinate struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Primary string  `json:"primary"`
	Globe   string  `json:"globe"`
}
