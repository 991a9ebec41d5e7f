// Package handler wires the dialog core into the host turn lifecycle.
package handler

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/showtimes-skill/locations"
	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
	"github.com/tanpawarit/showtimes-skill/skill/dialog"
	nodex "github.com/tanpawarit/showtimes-skill/skill/nodes"
	statex "github.com/tanpawarit/showtimes-skill/skill/state"
)

const (
	welcomeSpeech = "Welcome to Movie Guide. Which city would you like movie showtimes for?"
	helpSpeech    = "You can ask for movie showtimes by city and day. " +
		"For example, say: what movies are playing in seattle on saturday. " +
		"Which city would you like?"
	goodbyeSpeech = "Goodbye."
)

type intentFunc func(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error)

// Handler is the skill object: lifecycle hooks plus an intent-name-to-handler
// mapping, executed through a compiled turn graph.
type Handler struct {
	store    statex.Store
	resolver *dialog.Resolver
	intents  map[string]intentFunc

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(store statex.Store, finder contractx.ShowtimeFinder) (*Handler, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if finder == nil {
		return nil, errors.New("showtime finder is required")
	}

	h := &Handler{
		store:    store,
		resolver: dialog.NewResolver(finder),
		now:      time.Now,
	}

	h.intents = map[string]intentFunc{
		contractx.IntentOneshotShowtimes: h.onOneshotShowtimes,
		contractx.IntentDialogShowtimes:  h.onDialogShowtimes,
		contractx.IntentSupportedCities:  h.onSupportedCities,
		contractx.IntentHelp:             h.onHelp,
		contractx.IntentStop:             h.onStop,
		contractx.IntentCancel:           h.onStop,
	}

	graphRunner, err := h.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	h.graphRunner = graphRunner

	return h, nil
}

// HandleRequest processes one host turn and returns exactly one response
// envelope.
func (h *Handler) HandleRequest(ctx context.Context, env contractx.RequestEnvelope) (contractx.ResponseEnvelope, error) {
	out, err := h.graphRunner.Invoke(ctx, nodex.GraphInput{Envelope: env})
	if err != nil {
		return contractx.ResponseEnvelope{}, err
	}
	return out.Envelope, nil
}

// resolveTurn is the dispatch node: lifecycle requests first, then the
// intent mapping.
func (h *Handler) resolveTurn(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
	switch in.Request.Type {
	case contractx.RequestTypeLaunch:
		in.Action = h.onLaunch()

	case contractx.RequestTypeSessionEnded:
		h.onSessionEnded(in.SessionID, in.Request.Reason)
		in.Action = contractx.Action{}

	case contractx.RequestTypeIntent:
		intent := *in.Request.Intent
		handlerFn, ok := h.intents[intent.Name]
		if !ok {
			return nil, contractx.ErrUnknownIntent
		}
		action, err := handlerFn(ctx, intent, in.Session, in.Now)
		if err != nil {
			return nil, err
		}
		in.Action = action
	}

	in.EndSession = in.Action.EndsSession()
	return in, nil
}

func (h *Handler) onLaunch() contractx.Action {
	return contractx.Ask(welcomeSpeech, dialog.CityPrompt)
}

func (h *Handler) onSessionEnded(sessionID, reason string) {
	log.Debug().Str("session_id", sessionID).Str("reason", reason).Msg("session ended")
}

func (h *Handler) onOneshotShowtimes(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error) {
	return h.resolver.OneShot(ctx, intent, sess, now)
}

func (h *Handler) onDialogShowtimes(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error) {
	return h.resolver.MultiTurn(ctx, intent, sess, now)
}

func (h *Handler) onSupportedCities(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error) {
	return dialog.SupportedCities(locations.Names()), nil
}

func (h *Handler) onHelp(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error) {
	return contractx.Ask(helpSpeech, dialog.CityPrompt), nil
}

func (h *Handler) onStop(ctx context.Context, intent contractx.Intent, sess *statex.DialogSession, now time.Time) (contractx.Action, error) {
	return contractx.Tell(goodbyeSpeech), nil
}
