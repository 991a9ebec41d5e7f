// Package locations holds the static table of cities the skill knows
// showtimes for. The table is read-only after process start.
package locations

import (
	"sort"
	"strings"
)

type Location struct {
	City    string
	Zipcode string
}

const defaultCity = "seattle"

var table = map[string]string{
	"seattle":       "98101",
	"portland":      "97201",
	"san francisco": "94103",
	"los angeles":   "90012",
	"san diego":     "92101",
	"new york":      "10001",
	"chicago":       "60601",
	"boston":        "02108",
	"austin":        "78701",
	"denver":        "80202",
	"miami":         "33101",
	"minneapolis":   "55401",
}

// Lookup resolves a spoken city name, case-insensitively.
func Lookup(name string) (Location, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	zip, ok := table[key]
	if !ok {
		return Location{}, false
	}
	return Location{City: key, Zipcode: zip}, true
}

// LookupZipcode resolves a zipcode that belongs to a known city.
func LookupZipcode(zipcode string) (Location, bool) {
	want := strings.TrimSpace(zipcode)
	if want == "" {
		return Location{}, false
	}
	for city, zip := range table {
		if zip == want {
			return Location{City: city, Zipcode: zip}, true
		}
	}
	return Location{}, false
}

// Default returns the fallback city used when no location slot is supplied
// and defaulting is allowed.
func Default() Location {
	return Location{City: defaultCity, Zipcode: table[defaultCity]}
}

// Names lists the supported city names in stable order, for the
// supported-cities prompt.
func Names() []string {
	names := make([]string, 0, len(table))
	for city := range table {
		names = append(names, city)
	}
	sort.Strings(names)
	return names
}
