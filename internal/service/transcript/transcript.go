// Package transcript provides the transcript domain service.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/store"
)

// Service manages persisted transcript fragments.
type Service struct {
	transcripts store.TranscriptStore
	log         zerolog.Logger
}

// NewService creates the transcript service.
func NewService(transcripts store.TranscriptStore) *Service {
	return &Service{
		transcripts: transcripts,
		log:         logging.WithComponent("transcript"),
	}
}

// Create persists one fragment. A zero timestamp is replaced with the server
// clock; confidence stays at whatever the producer supplied (zero when absent).
func (s *Service) Create(ctx context.Context, f models.TranscriptFragment) (*models.TranscriptFragment, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}

	if err := s.transcripts.Create(ctx, &f); err != nil {
		s.log.Error().Err(err).Str("meetingId", f.MeetingID).Msg("Error creating transcript")
		return nil, fmt.Errorf("create transcript: %w", err)
	}

	s.log.Debug().
		Str("meetingId", f.MeetingID).
		Str("transcriptId", f.ID).
		Msg("Transcript entry created")
	return &f, nil
}

// ListByMeeting returns a meeting's fragments in timestamp order.
func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptFragment, error) {
	return s.transcripts.ListByMeeting(ctx, meetingID)
}

// Formatted renders the transcript as "[HH:MM:SS] Speaker: text" lines.
func (s *Service) Formatted(ctx context.Context, meetingID string) (string, error) {
	fragments, err := s.transcripts.ListByMeeting(ctx, meetingID)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(fragments))
	for _, f := range fragments {
		speaker := f.SpeakerName
		if speaker == "" {
			speaker = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			f.Timestamp.Format("15:04:05"), speaker, f.Text))
	}
	return strings.Join(lines, "\n"), nil
}

// Search returns the meeting's fragments whose text contains query.
func (s *Service) Search(ctx context.Context, meetingID, query string) ([]models.TranscriptFragment, error) {
	return s.transcripts.Search(ctx, meetingID, query)
}

// Count returns the number of fragments persisted for a meeting.
func (s *Service) Count(ctx context.Context, meetingID string) (int, error) {
	return s.transcripts.Count(ctx, meetingID)
}
