// Package nodes holds the per-step functions of the turn-handling graph.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
	statex "github.com/tanpawarit/showtimes-skill/skill/state"
)

type GraphInput struct {
	Envelope contractx.RequestEnvelope
}

type GraphOutput struct {
	Envelope contractx.ResponseEnvelope
}

// GraphState flows through the turn pipeline: validate_request →
// load_session → resolve_turn → save_session → finalize_reply.
type GraphState struct {
	SessionID  string
	NewSession bool
	Request    contractx.RequestBody
	Attributes map[string]string
	Now        time.Time

	Session *statex.DialogSession
	Action  contractx.Action

	// EndSession marks the conversation finished; save_session deletes the
	// stored state instead of persisting it.
	EndSession bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.Envelope.Session.SessionID)
	if sessionID == "" {
		return nil, contractx.ErrInvalidSession
	}

	switch in.Envelope.Request.Type {
	case contractx.RequestTypeLaunch, contractx.RequestTypeSessionEnded:
	case contractx.RequestTypeIntent:
		if in.Envelope.Request.Intent == nil {
			return nil, fmt.Errorf("%w: intent request without intent", contractx.ErrInvalidRequest)
		}
	default:
		return nil, fmt.Errorf("%w: type=%q", contractx.ErrInvalidRequest, in.Envelope.Request.Type)
	}

	return &GraphState{
		SessionID:  sessionID,
		NewSession: in.Envelope.Session.New,
		Request:    in.Envelope.Request,
		Attributes: in.Envelope.Session.Attributes,
		Now:        nowFn().UTC(),
	}, nil
}

// LoadSession rebuilds the dialog session for this turn. Attributes echoed
// by the host win over the store; a brand-new session skips the store read.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if len(in.Attributes) > 0 {
		in.Session = statex.FromAttributes(in.SessionID, in.Attributes, in.Now)
		return in, nil
	}

	if in.NewSession {
		log.Debug().Str("session_id", in.SessionID).Msg("session started")
		in.Session = statex.NewDialogSession(in.SessionID, in.Now)
		return in, nil
	}

	session, err := store.Load(ctx, in.SessionID)
	if err == nil {
		in.Session = session
		return in, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}

	in.Session = statex.NewDialogSession(in.SessionID, in.Now)
	return in, nil
}

// SaveSession persists the session for the next turn, or deletes it when
// the conversation ended this turn.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.EndSession {
		if err := store.Delete(ctx, in.SessionID); err != nil {
			return nil, err
		}
		return in, nil
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}
	return in, nil
}

// FinalizeReply renders the turn's single action into the wire envelope.
// SessionEnded turns carry no action and produce an empty terminal body.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.Request.Type != contractx.RequestTypeSessionEnded && strings.TrimSpace(in.Action.Speech) == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no spoken response", contractx.ErrValidation)
	}

	var attrs map[string]string
	if !in.Action.EndsSession() {
		attrs = in.Session.Attributes()
	}
	return GraphOutput{Envelope: in.Action.Envelope(attrs)}, nil
}
