// Package links builds URLs for the external services an analyst uses to
// verify a candidate location: map views, street-level imagery, reverse image
// search and historical weather.
package links

import (
	"fmt"

	"geointel/pkg/coords"
)

// Verification groups the external check URLs for one coordinate.
type Verification struct {
	Maps       map[string]string `json:"maps"`
	StreetView map[string]string `json:"street_view"`
	Weather    map[string]string `json:"weather"`
}

func fmtCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

// ForPoint returns the verification links for a coordinate.
func ForPoint(p coords.Point) Verification {
	lat, lon := fmtCoord(p.Lat), fmtCoord(p.Lon)
	return Verification{
		Maps: map[string]string{
			"Google Maps":   fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s", lat, lon),
			"Google Earth":  fmt.Sprintf("https://earth.google.com/web/@%s,%s,1000a,35y,0h,0t,0r", lat, lon),
			"Bing Maps":     fmt.Sprintf("https://www.bing.com/maps?q=%s,%s", lat, lon),
			"OpenStreetMap": fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s&zoom=16", lat, lon),
			"Yandex Maps":   fmt.Sprintf("https://yandex.com/maps/?ll=%s,%s&z=16", lon, lat),
		},
		StreetView: map[string]string{
			"Google Street View": fmt.Sprintf("https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=%s,%s", lat, lon),
			"Mapillary":          fmt.Sprintf("https://www.mapillary.com/app/?lat=%s&lng=%s&z=17", lat, lon),
			"Yandex Panorama":    fmt.Sprintf("https://yandex.com/maps/?ll=%s,%s&z=16&l=stv", lon, lat),
		},
		Weather: map[string]string{
			"Weather History": fmt.Sprintf("https://www.timeanddate.com/weather/@%s,%s/historic", lat, lon),
			"Sun Position":    fmt.Sprintf("https://www.suncalc.org/#%s,%s,15", lat, lon),
		},
	}
}

// ReverseImageSearch lists the reverse-image-search entry points. The engines
// require a manual upload, so these are static.
func ReverseImageSearch() map[string]string {
	return map[string]string{
		"Google Images":      "https://images.google.com/",
		"TinEye":             "https://tineye.com/",
		"Yandex Images":      "https://yandex.com/images/",
		"Bing Visual Search": "https://www.bing.com/visualsearch",
	}
}
