package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DialogSession is the per-conversation slot-filling state. The dialog
// resolver is its only writer; once a field is set it is never cleared
// within the conversation. It survives between turns either through the
// host echoing the attribute map or through a Store backend.
type DialogSession struct {
	SessionID string `json:"session_id"`

	City        string `json:"city,omitempty"`
	Zipcode     string `json:"zipcode,omitempty"`
	Date        string `json:"date,omitempty"` // ISO yyyy-mm-dd
	DisplayDate string `json:"display_date,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

const isoDateLayout = "2006-01-02"

// Attribute keys used when the session rides in the host envelope.
const (
	attrCity        = "pending_city"
	attrZipcode     = "pending_zipcode"
	attrDate        = "pending_date"
	attrDisplayDate = "pending_display_date"
)

var (
	ErrStateNotFound   = errors.New("dialog session not found")
	ErrNilSessionState = errors.New("dialog session is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

func NewDialogSession(sessionID string, now time.Time) *DialogSession {
	return &DialogSession{
		SessionID: sessionID,
		UpdatedAt: now.UTC(),
	}
}

// FromAttributes rebuilds a session from the attribute map the host echoed
// back. Unknown keys are ignored.
func FromAttributes(sessionID string, attrs map[string]string, now time.Time) *DialogSession {
	s := NewDialogSession(sessionID, now)
	s.City = strings.TrimSpace(attrs[attrCity])
	s.Zipcode = strings.TrimSpace(attrs[attrZipcode])
	s.Date = strings.TrimSpace(attrs[attrDate])
	s.DisplayDate = strings.TrimSpace(attrs[attrDisplayDate])
	return s
}

// Attributes renders the pending fields for the host envelope. Empty fields
// are omitted.
func (s *DialogSession) Attributes() map[string]string {
	attrs := make(map[string]string, 4)
	if s.City != "" {
		attrs[attrCity] = s.City
	}
	if s.Zipcode != "" {
		attrs[attrZipcode] = s.Zipcode
	}
	if s.Date != "" {
		attrs[attrDate] = s.Date
	}
	if s.DisplayDate != "" {
		attrs[attrDisplayDate] = s.DisplayDate
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func (s *DialogSession) SetLocation(city, zipcode string) {
	s.City = city
	s.Zipcode = zipcode
}

func (s *DialogSession) SetDate(date time.Time, display string) {
	s.Date = date.Format(isoDateLayout)
	s.DisplayDate = display
}

func (s *DialogSession) HasLocation() bool {
	return s != nil && s.Zipcode != ""
}

func (s *DialogSession) HasDate() bool {
	return s != nil && s.Date != ""
}

// DateValue parses the stored ISO date back into a calendar date.
func (s *DialogSession) DateValue() (time.Time, error) {
	if !s.HasDate() {
		return time.Time{}, errors.New("no date stored in session")
	}
	t, err := time.Parse(isoDateLayout, s.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q is corrupt: %w", s.Date, err)
	}
	return t, nil
}

func (s *DialogSession) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *DialogSession) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.City != "" && s.Zipcode == "" {
		return fmt.Errorf("city %q stored without zipcode", s.City)
	}
	if s.Date != "" {
		if _, err := time.Parse(isoDateLayout, s.Date); err != nil {
			return fmt.Errorf("stored date %q is not ISO: %w", s.Date, err)
		}
	}
	return nil
}
