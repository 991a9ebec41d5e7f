package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
)

// Speech stays short even when the feed lists dozens of movies.
const maxSpokenTitles = 5

// finalize performs exactly one external lookup and turns the outcome into
// the terminal action of the conversation. Lookup failures become a spoken
// apology, never an error past the turn boundary.
func (r *Resolver) finalize(
	ctx context.Context,
	city string,
	zipcode string,
	date time.Time,
	displayDate string,
) (contractx.Action, error) {
	shows, err := r.finder.Find(ctx, zipcode, date)
	if err != nil {
		log.Warn().Err(err).Str("zipcode", zipcode).Msg("showtime lookup failed")
		return contractx.Tell(fmt.Sprintf("I'm sorry, %s. Please try again later.", err)), nil
	}

	speech := fmt.Sprintf(
		"The movies playing near %s on %s are: %s.",
		city, displayDate, joinTitles(shows),
	)
	cardTitle := fmt.Sprintf("Showtimes near %s", city)
	return contractx.TellWithCard(speech, cardTitle, speech), nil
}

func joinTitles(shows []contractx.Showtime) string {
	titles := make([]string, 0, maxSpokenTitles)
	for _, s := range shows {
		if len(titles) == maxSpokenTitles {
			break
		}
		titles = append(titles, s.Title)
	}
	if len(titles) == 0 {
		return ""
	}
	if len(titles) == 1 {
		return titles[0]
	}
	return strings.Join(titles[:len(titles)-1], ", ") + ", and " + titles[len(titles)-1]
}
