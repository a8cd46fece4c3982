package schema

import (
	"errors"
	"testing"

	"meeting-ai-orchestrator/internal/models"
)

func TestValidateFragment(t *testing.T) {
	v := New()

	cases := []struct {
		name     string
		fragment models.TranscriptFragment
		wantErr  error
	}{
		{"valid", models.TranscriptFragment{MeetingID: "m-1", Text: "hello"}, nil},
		{"missing meeting", models.TranscriptFragment{Text: "hello"}, ErrMissingMeetingID},
		{"blank meeting", models.TranscriptFragment{MeetingID: "  ", Text: "hello"}, ErrMissingMeetingID},
		{"missing text", models.TranscriptFragment{MeetingID: "m-1"}, ErrMissingText},
		{"blank text", models.TranscriptFragment{MeetingID: "m-1", Text: "\n\t"}, ErrMissingText},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := v.ValidateFragment(c.fragment)
			if !errors.Is(err, c.wantErr) {
				t.Errorf("ValidateFragment(%+v) = %v, want %v", c.fragment, err, c.wantErr)
			}
		})
	}
}
