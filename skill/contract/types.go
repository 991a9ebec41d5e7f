package contract

import "strings"

// Slot names the interaction model can deliver on a turn.
const (
	SlotCity    = "City"
	SlotZipcode = "Zipcode"
	SlotDate    = "Date"
)

// Request types of the host turn lifecycle.
const (
	RequestTypeLaunch       = "LaunchRequest"
	RequestTypeIntent       = "IntentRequest"
	RequestTypeSessionEnded = "SessionEndedRequest"
)

// Intent names the skill responds to.
const (
	IntentOneshotShowtimes = "OneshotShowtimesIntent"
	IntentDialogShowtimes  = "DialogShowtimesIntent"
	IntentSupportedCities  = "SupportedCitiesIntent"
	IntentHelp             = "AMAZON.HelpIntent"
	IntentStop             = "AMAZON.StopIntent"
	IntentCancel           = "AMAZON.CancelIntent"
)

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// SlotValue returns the trimmed value of a named slot. An absent slot and a
// slot with empty text are both reported as "".
func (i Intent) SlotValue(name string) string {
	if i.Slots == nil {
		return ""
	}
	return strings.TrimSpace(i.Slots[name].Value)
}

type SessionEnvelope struct {
	New        bool              `json:"new"`
	SessionID  string            `json:"sessionId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type RequestBody struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// RequestEnvelope is the host's wire format for one turn.
type RequestEnvelope struct {
	Version string          `json:"version"`
	Session SessionEnvelope `json:"session"`
	Request RequestBody     `json:"request"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Card struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type Reprompt struct {
	OutputSpeech *OutputSpeech `json:"outputSpeech,omitempty"`
}

type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// ResponseEnvelope carries exactly one outbound action plus the session
// attributes the host should hand back on the next turn.
type ResponseEnvelope struct {
	Version           string            `json:"version"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
	Response          ResponseBody      `json:"response"`
}

const (
	EnvelopeVersion = "1.0"
	speechTypePlain = "PlainText"
	cardTypeSimple  = "Simple"

	ActionKindAsk  = "ask"
	ActionKindTell = "tell"
)

// Action is the single outbound decision of one turn: ask a follow-up
// question (conversation continues) or tell a final answer (conversation
// ends). The zero Action means "no spoken response" and is only valid for
// SessionEndedRequest turns.
type Action struct {
	Kind         string
	Speech       string
	RepromptText string
	CardTitle    string
	CardContent  string
}

func Ask(speech, reprompt string) Action {
	return Action{Kind: ActionKindAsk, Speech: speech, RepromptText: reprompt}
}

func Tell(speech string) Action {
	return Action{Kind: ActionKindTell, Speech: speech}
}

func TellWithCard(speech, cardTitle, cardContent string) Action {
	return Action{
		Kind:        ActionKindTell,
		Speech:      speech,
		CardTitle:   cardTitle,
		CardContent: cardContent,
	}
}

func (a Action) EndsSession() bool {
	return a.Kind != ActionKindAsk
}

// Envelope renders the action into the host wire format.
func (a Action) Envelope(sessionAttributes map[string]string) ResponseEnvelope {
	env := ResponseEnvelope{
		Version:           EnvelopeVersion,
		SessionAttributes: sessionAttributes,
		Response: ResponseBody{
			ShouldEndSession: a.EndsSession(),
		},
	}

	if a.Speech != "" {
		env.Response.OutputSpeech = &OutputSpeech{Type: speechTypePlain, Text: a.Speech}
	}
	if a.RepromptText != "" {
		env.Response.Reprompt = &Reprompt{
			OutputSpeech: &OutputSpeech{Type: speechTypePlain, Text: a.RepromptText},
		}
	}
	if a.CardTitle != "" || a.CardContent != "" {
		env.Response.Card = &Card{Type: cardTypeSimple, Title: a.CardTitle, Content: a.CardContent}
	}
	return env
}
