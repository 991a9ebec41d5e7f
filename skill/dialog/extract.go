// Package dialog implements the multi-turn slot-filling core: extracting
// typed values from turn slots, deciding what to ask next, and finalizing
// the showtime lookup once both slots are resolved.
package dialog

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/tanpawarit/showtimes-skill/locations"
	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
)

type LocationStatus string

const (
	LocationResolved LocationStatus = "resolved"
	LocationInvalid  LocationStatus = "invalid"
	LocationMissing  LocationStatus = "missing"
)

// ResolvedLocation is the outcome of validating the City/Zipcode slot.
// Raw carries the user's original-case text when the lookup failed, so the
// reprompt can echo it back.
type ResolvedLocation struct {
	Status  LocationStatus
	City    string
	Zipcode string
	Raw     string
}

type DateStatus string

const (
	DateResolved    DateStatus = "resolved"
	DateUnparseable DateStatus = "unparseable"
	DateMissing     DateStatus = "missing"
)

type ResolvedDate struct {
	Status  DateStatus
	Date    time.Time
	Display string
}

const isoDateLayout = "2006-01-02"

// ExtractLocation validates the location slots of one turn against the
// static city table. With allowDefault, an absent slot resolves to the
// designated default city instead of Missing.
func ExtractLocation(intent contractx.Intent, allowDefault bool) ResolvedLocation {
	raw := intent.SlotValue(contractx.SlotCity)
	if raw == "" {
		if zip := intent.SlotValue(contractx.SlotZipcode); zip != "" {
			if loc, ok := locations.LookupZipcode(zip); ok {
				return ResolvedLocation{Status: LocationResolved, City: loc.City, Zipcode: loc.Zipcode}
			}
			return ResolvedLocation{Status: LocationInvalid, Raw: zip}
		}
		if allowDefault {
			def := locations.Default()
			return ResolvedLocation{Status: LocationResolved, City: def.City, Zipcode: def.Zipcode}
		}
		return ResolvedLocation{Status: LocationMissing}
	}

	loc, ok := locations.Lookup(raw)
	if !ok {
		return ResolvedLocation{Status: LocationInvalid, Raw: raw}
	}
	// Keep the user's casing for speech, the table's zipcode for lookup.
	return ResolvedLocation{Status: LocationResolved, City: raw, Zipcode: loc.Zipcode}
}

// ExtractDate parses the Date slot into a calendar date plus a
// speech-friendly display string. Accepts ISO dates (as delivered by hosts
// that resolve dates themselves) and natural phrases like "today",
// "tomorrow", or a weekday name.
func ExtractDate(intent contractx.Intent, now time.Time) ResolvedDate {
	raw := intent.SlotValue(contractx.SlotDate)
	if raw == "" {
		return ResolvedDate{Status: DateMissing}
	}

	if t, err := time.Parse(isoDateLayout, raw); err == nil {
		return resolvedDate(t)
	}

	t, err := naturaldate.Parse(raw, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return ResolvedDate{Status: DateUnparseable}
	}
	// The parser hands back the reference instant unchanged, with no error,
	// when the text contains nothing it recognizes. Every phrase it does
	// recognize shifts or truncates the instant.
	if t.Equal(now) {
		return ResolvedDate{Status: DateUnparseable}
	}
	return resolvedDate(t)
}

func resolvedDate(t time.Time) ResolvedDate {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return ResolvedDate{
		Status:  DateResolved,
		Date:    day,
		Display: DisplayDate(day),
	}
}

// DisplayDate formats a date the way it should be spoken, e.g.
// "Saturday June 20th".
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%s %s %s", t.Weekday(), t.Month(), humanize.Ordinal(t.Day()))
}
