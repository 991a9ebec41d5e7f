package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
	"github.com/tanpawarit/showtimes-skill/skill/dialog"
	statex "github.com/tanpawarit/showtimes-skill/skill/state"
)

type fakeStore struct {
	sessions map[string]statex.DialogSession
	loadErr  error
	saveErr  error
	saves    int
	deletes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]statex.DialogSession)}
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.DialogSession, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, statex.ErrStateNotFound
	}
	copied := s
	return &copied, nil
}

func (f *fakeStore) Save(ctx context.Context, s *statex.DialogSession) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.sessions[s.SessionID] = *s
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	f.deletes++
	delete(f.sessions, sessionID)
	return nil
}

type findCall struct {
	zipcode string
	date    time.Time
}

type fakeFinder struct {
	shows []contractx.Showtime
	err   error
	calls []findCall
}

func (f *fakeFinder) Find(ctx context.Context, zipcode string, date time.Time) ([]contractx.Showtime, error) {
	f.calls = append(f.calls, findCall{zipcode: zipcode, date: date})
	if f.err != nil {
		return nil, f.err
	}
	return append([]contractx.Showtime(nil), f.shows...), nil
}

func newTestHandler(t *testing.T, store statex.Store, finder contractx.ShowtimeFinder) *Handler {
	t.Helper()
	h, err := New(store, finder)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.now = func() time.Time {
		return time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC) // a Monday
	}
	return h
}

func intentEnvelope(sessionID string, isNew bool, attrs map[string]string, intentName string, slots map[string]string) contractx.RequestEnvelope {
	intent := &contractx.Intent{Name: intentName, Slots: map[string]contractx.Slot{}}
	for name, value := range slots {
		intent.Slots[name] = contractx.Slot{Name: name, Value: value}
	}
	return contractx.RequestEnvelope{
		Version: contractx.EnvelopeVersion,
		Session: contractx.SessionEnvelope{
			New:        isNew,
			SessionID:  sessionID,
			Attributes: attrs,
		},
		Request: contractx.RequestBody{
			Type:   contractx.RequestTypeIntent,
			Intent: intent,
		},
	}
}

func TestHandleRequestInvalidInput(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeStore(), &fakeFinder{})

	_, err := h.HandleRequest(context.Background(), contractx.RequestEnvelope{
		Session: contractx.SessionEnvelope{SessionID: "   "},
		Request: contractx.RequestBody{Type: contractx.RequestTypeLaunch},
	})
	if !errors.Is(err, contractx.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	_, err = h.HandleRequest(context.Background(), contractx.RequestEnvelope{
		Session: contractx.SessionEnvelope{SessionID: "s1"},
		Request: contractx.RequestBody{Type: "AudioPlayerRequest"},
	})
	if !errors.Is(err, contractx.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	_, err = h.HandleRequest(context.Background(), intentEnvelope("s1", true, nil, "NoSuchIntent", nil))
	if !errors.Is(err, contractx.ErrUnknownIntent) {
		t.Fatalf("expected ErrUnknownIntent, got %v", err)
	}
}

func TestHandleRequestLaunch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := newTestHandler(t, store, &fakeFinder{})

	resp, err := h.HandleRequest(context.Background(), contractx.RequestEnvelope{
		Version: contractx.EnvelopeVersion,
		Session: contractx.SessionEnvelope{New: true, SessionID: "s-launch"},
		Request: contractx.RequestBody{Type: contractx.RequestTypeLaunch},
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if resp.Response.ShouldEndSession {
		t.Fatal("launch must keep the session open")
	}
	if resp.Response.OutputSpeech == nil || !strings.Contains(resp.Response.OutputSpeech.Text, "Welcome") {
		t.Fatalf("unexpected launch speech: %+v", resp.Response.OutputSpeech)
	}
	if resp.Response.Reprompt == nil || resp.Response.Reprompt.OutputSpeech.Text != dialog.CityPrompt {
		t.Fatalf("launch reprompt = %+v, want the city question", resp.Response.Reprompt)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
}

func TestHandleRequestOneshotScenario(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	finder := &fakeFinder{shows: []contractx.Showtime{
		{Title: "The Long Voyage"},
		{Title: "Midnight Express Lane"},
	}}
	h := newTestHandler(t, store, finder)

	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-oneshot", true, nil,
		contractx.IntentOneshotShowtimes,
		map[string]string{contractx.SlotCity: "Seattle", contractx.SlotDate: "saturday"},
	))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if len(finder.calls) != 1 {
		t.Fatalf("finder called %d times, want exactly once", len(finder.calls))
	}
	if finder.calls[0].zipcode != "98101" {
		t.Fatalf("finder zipcode = %q", finder.calls[0].zipcode)
	}
	if finder.calls[0].date.Weekday() != time.Saturday {
		t.Fatalf("finder weekday = %s", finder.calls[0].date.Weekday())
	}

	if !resp.Response.ShouldEndSession {
		t.Fatal("finalized turn must end the session")
	}
	speech := resp.Response.OutputSpeech.Text
	for _, want := range []string{"Seattle", "Saturday June 20th", "The Long Voyage", "Midnight Express Lane"} {
		if !strings.Contains(speech, want) {
			t.Fatalf("speech %q missing %q", speech, want)
		}
	}
	if resp.Response.Card == nil {
		t.Fatal("finalized turn should carry a card")
	}
	if len(resp.SessionAttributes) != 0 {
		t.Fatalf("terminal response must not carry attributes, got %v", resp.SessionAttributes)
	}
	if store.saves != 0 {
		t.Fatalf("one-shot finalize must not save session state, saves = %d", store.saves)
	}
	if store.deletes != 1 {
		t.Fatalf("expected stored session cleanup, deletes = %d", store.deletes)
	}
}

func TestHandleRequestOneshotInvalidCity(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	finder := &fakeFinder{}
	h := newTestHandler(t, store, finder)

	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-invalid", true, nil,
		contractx.IntentOneshotShowtimes,
		map[string]string{contractx.SlotCity: "Atlantis"},
	))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if resp.Response.ShouldEndSession {
		t.Fatal("invalid city must reprompt")
	}
	if !strings.Contains(resp.Response.OutputSpeech.Text, "Atlantis") {
		t.Fatalf("reprompt %q does not echo the invalid city", resp.Response.OutputSpeech.Text)
	}
	if len(finder.calls) != 0 {
		t.Fatal("finder must not run on invalid city")
	}
	if len(resp.SessionAttributes) != 0 {
		t.Fatalf("invalid city must not persist slots, attrs = %v", resp.SessionAttributes)
	}

	saved := store.sessions["s-invalid"]
	if saved.HasLocation() || saved.HasDate() {
		t.Fatalf("invalid city wrote session state: %+v", saved)
	}
}

func TestHandleRequestMultiTurnViaAttributes(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	finder := &fakeFinder{shows: []contractx.Showtime{{Title: "The Long Voyage"}}}
	h := newTestHandler(t, store, finder)

	// Turn 1: city only.
	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-multi", true, nil,
		contractx.IntentDialogShowtimes,
		map[string]string{contractx.SlotCity: "seattle"},
	))
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	if resp.Response.ShouldEndSession {
		t.Fatal("turn 1 should continue the conversation")
	}
	if len(resp.SessionAttributes) == 0 {
		t.Fatal("turn 1 must hand the pending location back to the host")
	}

	// Turn 2: host echoes the attributes, user supplies a date.
	resp, err = h.HandleRequest(context.Background(), intentEnvelope(
		"s-multi", false, resp.SessionAttributes,
		contractx.IntentDialogShowtimes,
		map[string]string{contractx.SlotDate: "tomorrow"},
	))
	if err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}
	if !resp.Response.ShouldEndSession {
		t.Fatal("turn 2 should finalize")
	}
	if len(finder.calls) != 1 {
		t.Fatalf("finder called %d times, want exactly once", len(finder.calls))
	}
	if finder.calls[0].zipcode != "98101" {
		t.Fatalf("finder zipcode = %q, want stored seattle key", finder.calls[0].zipcode)
	}
}

func TestHandleRequestMultiTurnViaStore(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	finder := &fakeFinder{shows: []contractx.Showtime{{Title: "The Long Voyage"}}}
	h := newTestHandler(t, store, finder)

	if _, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-store", true, nil,
		contractx.IntentDialogShowtimes,
		map[string]string{contractx.SlotCity: "boston"},
	)); err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("turn 1 saves = %d, want 1", store.saves)
	}

	// Host does not echo attributes; the store carries the state.
	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-store", false, nil,
		contractx.IntentDialogShowtimes,
		map[string]string{contractx.SlotDate: "2026-06-20"},
	))
	if err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}
	if !resp.Response.ShouldEndSession {
		t.Fatal("turn 2 should finalize")
	}
	if len(finder.calls) != 1 || finder.calls[0].zipcode != "02108" {
		t.Fatalf("finder calls = %+v, want boston zipcode from store", finder.calls)
	}
}

func TestHandleRequestStopEndsSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := newTestHandler(t, store, &fakeFinder{})

	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-stop", false, nil, contractx.IntentStop, nil,
	))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if !resp.Response.ShouldEndSession {
		t.Fatal("stop must end the session")
	}
	if !strings.Contains(resp.Response.OutputSpeech.Text, "Goodbye") {
		t.Fatalf("unexpected stop speech %q", resp.Response.OutputSpeech.Text)
	}
	if store.deletes != 1 {
		t.Fatalf("stop should delete stored state, deletes = %d", store.deletes)
	}
}

func TestHandleRequestSupportedCities(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeStore(), &fakeFinder{})

	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-cities", true, nil, contractx.IntentSupportedCities, nil,
	))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if resp.Response.ShouldEndSession {
		t.Fatal("supported-cities must keep the conversation open")
	}
	speech := resp.Response.OutputSpeech.Text
	for _, want := range []string{"seattle", "portland", "boston"} {
		if !strings.Contains(speech, want) {
			t.Fatalf("speech %q missing %q", speech, want)
		}
	}
}

func TestHandleRequestSessionEnded(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := newTestHandler(t, store, &fakeFinder{})

	resp, err := h.HandleRequest(context.Background(), contractx.RequestEnvelope{
		Session: contractx.SessionEnvelope{SessionID: "s-ended"},
		Request: contractx.RequestBody{Type: contractx.RequestTypeSessionEnded, Reason: "USER_INITIATED"},
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if resp.Response.OutputSpeech != nil {
		t.Fatal("session-ended turn must not speak")
	}
	if !resp.Response.ShouldEndSession {
		t.Fatal("session-ended response must be terminal")
	}
	if store.deletes != 1 {
		t.Fatalf("expected stored session cleanup, deletes = %d", store.deletes)
	}
}

func TestHandleRequestSaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("save failed")
	store := newFakeStore()
	store.saveErr = saveErr
	h := newTestHandler(t, store, &fakeFinder{})

	_, err := h.HandleRequest(context.Background(), contractx.RequestEnvelope{
		Session: contractx.SessionEnvelope{New: true, SessionID: "s-err"},
		Request: contractx.RequestBody{Type: contractx.RequestTypeLaunch},
	})
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestHandleRequestLookupFailureSpoken(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{err: errors.New("the showtime service is experiencing difficulty, status 503")}
	h := newTestHandler(t, newFakeStore(), finder)

	resp, err := h.HandleRequest(context.Background(), intentEnvelope(
		"s-fail", true, nil,
		contractx.IntentOneshotShowtimes,
		map[string]string{contractx.SlotCity: "seattle", contractx.SlotDate: "today"},
	))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if !resp.Response.ShouldEndSession {
		t.Fatal("lookup failure is terminal")
	}
	if !strings.Contains(resp.Response.OutputSpeech.Text, "difficulty") {
		t.Fatalf("speech %q does not surface failure", resp.Response.OutputSpeech.Text)
	}
}
