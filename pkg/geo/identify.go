// Package geo pulls place names out of structured analysis output. The model
// is prompted to emit COUNTRY / CITY / LANDMARK lines; these are the inputs
// for the geocoding fallback when no coordinates were parsed.
package geo

import (
	"regexp"
	"strings"
)

var countries = []string{
	"Afghanistan", "Albania", "Algeria", "Andorra", "Angola", "Antigua and Barbuda", "Argentina", "Armenia", "Australia", "Austria", "Azerbaijan",
	"Bahamas", "Bahrain", "Bangladesh", "Barbados", "Belarus", "Belgium", "Belize", "Benin", "Bhutan", "Bolivia", "Bosnia and Herzegovina", "Botswana", "Brazil", "Brunei", "Bulgaria", "Burkina Faso", "Burundi",
	"Cambodia", "Cameroon", "Canada", "Cape Verde", "Central African Republic", "Chad", "Chile", "China", "Colombia", "Comoros", "Costa Rica", "Croatia", "Cuba", "Cyprus", "Czech Republic",
	"Denmark", "Djibouti", "Dominica", "Dominican Republic",
	"East Timor", "Ecuador", "Egypt", "El Salvador", "Equatorial Guinea", "Eritrea", "Estonia", "Eswatini", "Ethiopia",
	"Fiji", "Finland", "France",
	"Gabon", "Gambia", "Georgia", "Germany", "Ghana", "Greece", "Grenada", "Guatemala", "Guinea", "Guinea-Bissau", "Guyana",
	"Haiti", "Honduras", "Hungary",
	"Iceland", "India", "Indonesia", "Iran", "Iraq", "Ireland", "Israel", "Italy",
	"Jamaica", "Japan", "Jordan",
	"Kazakhstan", "Kenya", "Kiribati", "North Korea", "South Korea", "Kuwait", "Kyrgyzstan",
	"Laos", "Latvia", "Lebanon", "Lesotho", "Liberia", "Libya", "Liechtenstein", "Lithuania", "Luxembourg",
	"Madagascar", "Malawi", "Malaysia", "Maldives", "Mali", "Malta", "Marshall Islands", "Mauritania", "Mauritius", "Mexico", "Micronesia", "Moldova", "Monaco", "Mongolia", "Montenegro", "Morocco", "Mozambique", "Myanmar",
	"Namibia", "Nauru", "Nepal", "Netherlands", "New Zealand", "Nicaragua", "Niger", "Nigeria", "North Macedonia", "Norway",
	"Oman",
	"Pakistan", "Palau", "Panama", "Papua New Guinea", "Paraguay", "Peru", "Philippines", "Poland", "Portugal",
	"Qatar",
	"Romania", "Russia", "Rwanda",
	"Saint Kitts and Nevis", "Saint Lucia", "Saint Vincent and the Grenadines", "Samoa", "San Marino", "Sao Tome and Principe", "Saudi Arabia", "Senegal", "Serbia", "Seychelles", "Sierra Leone", "Singapore", "Slovakia", "Slovenia", "Solomon Islands", "Somalia", "South Africa", "South Sudan", "Spain", "Sri Lanka", "Sudan", "Suriname", "Sweden", "Switzerland", "Syria",
	"Taiwan", "Tajikistan", "Tanzania", "Thailand", "Togo", "Tonga", "Trinidad and Tobago", "Tunisia", "Turkey", "Turkmenistan", "Tuvalu",
	"Uganda", "Ukraine", "United Arab Emirates", "United Kingdom", "United States", "Uruguay", "Uzbekistan",
	"Vanuatu", "Vatican City", "Venezuela", "Vietnam",
	"Yemen",
	"Zambia", "Zimbabwe",
}

// IsCountry reports whether place matches a known country name.
func IsCountry(place string) bool {
	for _, c := range countries {
		if strings.EqualFold(c, place) {
			return true
		}
	}
	return false
}

// CanonicalCountry returns the canonical spelling of a country name, or ""
// when the name is unknown.
func CanonicalCountry(place string) string {
	for _, c := range countries {
		if strings.EqualFold(c, strings.TrimSpace(place)) {
			return c
		}
	}
	return ""
}

var fieldRes = map[string]*regexp.Regexp{
	"country":  fieldRe("country"),
	"city":     fieldRe("city"),
	"landmark": fieldRe("landmark"),
}

func fieldRe(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[\s*\-#]*` + field + `\s*[:\-]\s*(.+)$`)
}

// ExtractField returns the value of a "FIELD: value" line in the analysis
// text, or "" when absent. Matching is case-insensitive and tolerates list
// markers in front of the field name.
func ExtractField(text, field string) string {
	re, ok := fieldRes[strings.ToLower(field)]
	if !ok {
		re = fieldRe(field)
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	val := strings.TrimSpace(m[1])
	val = strings.Trim(val, `*_"'`)
	if strings.EqualFold(val, "unknown") || strings.EqualFold(val, "n/a") || val == "-" {
		return ""
	}
	return strings.TrimSpace(val)
}

// Country extracts the country line and normalizes it against the known list.
// Unlisted values are returned as written so the geocoder can still try them.
func Country(text string) string {
	val := ExtractField(text, "country")
	if val == "" {
		return ""
	}
	if canonical := CanonicalCountry(val); canonical != "" {
		return canonical
	}
	return val
}

// City extracts the city line.
func City(text string) string {
	return ExtractField(text, "city")
}

// Landmark extracts the landmark line.
func Landmark(text string) string {
	return ExtractField(text, "landmark")
}

// PlaceQuery builds a forward-geocoding query out of whatever place fields
// the analysis produced, most specific first.
func PlaceQuery(text string) string {
	var parts []string
	if l := Landmark(text); l != "" {
		parts = append(parts, l)
	}
	if c := City(text); c != "" {
		parts = append(parts, c)
	}
	if c := Country(text); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}
