// Package schema validates inbound transcript events before they reach
// storage.
package schema

import (
	"errors"
	"strings"

	"meeting-ai-orchestrator/internal/models"
)

var (
	ErrMissingMeetingID = errors.New("transcript event missing meetingId")
	ErrMissingText      = errors.New("transcript event missing text")
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateFragment checks the required fields of a transcript event. Optional
// fields (speakerName, confidence) pass through untouched.
func (v *Validator) ValidateFragment(f models.TranscriptFragment) error {
	if strings.TrimSpace(f.MeetingID) == "" {
		return ErrMissingMeetingID
	}
	if strings.TrimSpace(f.Text) == "" {
		return ErrMissingText
	}
	return nil
}
