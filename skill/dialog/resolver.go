package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
	statex "github.com/tanpawarit/showtimes-skill/skill/state"
)

// CityPrompt is the question that restarts the flow; lifecycle handlers
// reuse it as their reprompt.
const (
	CityPrompt = "Which city would you like movie showtimes for?"
	datePrompt = "For which day would you like showtimes?"
)

func invalidCityPrompt(raw string) string {
	if raw == "" {
		return "I'm sorry, I didn't catch that city. " + CityPrompt
	}
	return fmt.Sprintf("I'm sorry, I don't have showtime information for %s. %s", raw, CityPrompt)
}

const unparseableDatePrompt = "I'm sorry, I didn't understand that date. " + datePrompt

// Resolver owns the per-turn slot-filling decisions. It is the only writer
// of the DialogSession.
type Resolver struct {
	finder contractx.ShowtimeFinder
}

func NewResolver(finder contractx.ShowtimeFinder) *Resolver {
	return &Resolver{finder: finder}
}

// OneShot handles the entry path where the whole request arrives in a
// single turn. Location defaulting is allowed; a missing date defaults to
// today so "what movies are playing in seattle" works without a follow-up.
func (r *Resolver) OneShot(
	ctx context.Context,
	intent contractx.Intent,
	sess *statex.DialogSession,
	now time.Time,
) (contractx.Action, error) {
	if sess == nil {
		return contractx.Action{}, statex.ErrNilSessionState
	}

	loc := ExtractLocation(intent, true)
	if loc.Status == LocationInvalid {
		// No session write: resubmitting the same bad input reprompts
		// identically.
		return contractx.Ask(invalidCityPrompt(loc.Raw), CityPrompt), nil
	}

	date := ExtractDate(intent, now)
	switch date.Status {
	case DateUnparseable:
		sess.SetLocation(loc.City, loc.Zipcode)
		return contractx.Ask(unparseableDatePrompt, datePrompt), nil
	case DateMissing:
		date = resolvedDate(now)
	}

	return r.finalize(ctx, loc.City, loc.Zipcode, date.Date, date.Display)
}

// MultiTurn handles the entry path where slots arrive incrementally. The
// location slot takes priority over the date slot when both are present.
func (r *Resolver) MultiTurn(
	ctx context.Context,
	intent contractx.Intent,
	sess *statex.DialogSession,
	now time.Time,
) (contractx.Action, error) {
	if sess == nil {
		return contractx.Action{}, statex.ErrNilSessionState
	}

	hasLocationSlot := intent.SlotValue(contractx.SlotCity) != "" ||
		intent.SlotValue(contractx.SlotZipcode) != ""
	hasDateSlot := intent.SlotValue(contractx.SlotDate) != ""

	switch {
	case hasLocationSlot:
		loc := ExtractLocation(intent, false)
		if loc.Status == LocationInvalid {
			return contractx.Ask(invalidCityPrompt(loc.Raw), CityPrompt), nil
		}
		if sess.HasDate() {
			stored, err := sess.DateValue()
			if err != nil {
				return contractx.Action{}, err
			}
			return r.finalize(ctx, loc.City, loc.Zipcode, stored, sess.DisplayDate)
		}
		sess.SetLocation(loc.City, loc.Zipcode)
		return contractx.Ask(datePrompt, datePrompt), nil

	case hasDateSlot:
		date := ExtractDate(intent, now)
		if date.Status != DateResolved {
			return contractx.Ask(unparseableDatePrompt, datePrompt), nil
		}
		if sess.HasLocation() {
			return r.finalize(ctx, sess.City, sess.Zipcode, date.Date, date.Display)
		}
		// Date arrived before location.
		sess.SetDate(date.Date, date.Display)
		return contractx.Ask(CityPrompt, CityPrompt), nil

	default:
		// Degenerate turn with no usable slot. Ask for whatever is still
		// missing, location first.
		if sess.HasLocation() {
			return contractx.Ask(datePrompt, datePrompt), nil
		}
		return contractx.Ask(CityPrompt, CityPrompt), nil
	}
}

// SupportedCities answers the "which cities do you know" request and sends
// the user back to the start of the flow.
func SupportedCities(names []string) contractx.Action {
	speech := fmt.Sprintf(
		"Right now, I know movie showtimes for these cities: %s. %s",
		strings.Join(names, ", "), CityPrompt,
	)
	return contractx.Ask(speech, CityPrompt)
}
