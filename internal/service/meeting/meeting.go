// Package meeting provides the meeting domain service.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/store"
)

// DefaultTitle is used when a meeting is created without one.
const DefaultTitle = "Untitled Meeting"

// Service manages meetings and participants.
type Service struct {
	meetings    store.MeetingStore
	transcripts store.TranscriptStore
	log         zerolog.Logger
}

// NewService creates the meeting service.
func NewService(meetings store.MeetingStore, transcripts store.TranscriptStore) *Service {
	return &Service{
		meetings:    meetings,
		transcripts: transcripts,
		log:         logging.WithComponent("meeting"),
	}
}

// CreateInput holds the fields for a new meeting.
type CreateInput struct {
	Title      string
	MeetingURL string
	Platform   string
	HostID     string
	UserID     string
}

// Create stores a new active meeting.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Meeting, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultTitle
	}
	platform := in.Platform
	if platform == "" {
		platform = models.PlatformGoogleMeet
	}

	now := time.Now().UTC()
	m := &models.Meeting{
		ID:         uuid.New().String(),
		Title:      title,
		MeetingURL: in.MeetingURL,
		Platform:   platform,
		Status:     models.MeetingStatusActive,
		HostID:     in.HostID,
		UserID:     in.UserID,
		StartTime:  now,
		CreatedAt:  now,
	}

	if err := s.meetings.Create(ctx, m); err != nil {
		s.log.Error().Err(err).Msg("Error creating meeting")
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	s.log.Info().Str("meetingId", m.ID).Msg("Meeting created")
	return m, nil
}

// GetByID returns one meeting, or store.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	return s.meetings.GetByID(ctx, id)
}

// ListByUser returns the user's meetings, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Meeting, error) {
	return s.meetings.ListByUser(ctx, userID)
}

// End marks a meeting ended and stamps its end time.
func (s *Service) End(ctx context.Context, id string) (*models.Meeting, error) {
	m, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m.Status = models.MeetingStatusEnded
	m.EndTime = &now

	if err := s.meetings.Update(ctx, m); err != nil {
		s.log.Error().Err(err).Str("meetingId", id).Msg("Error ending meeting")
		return nil, fmt.Errorf("end meeting: %w", err)
	}

	s.log.Info().Str("meetingId", id).Msg("Meeting ended")
	return m, nil
}

// AddParticipant attaches a participant to a meeting.
func (s *Service) AddParticipant(ctx context.Context, meetingID, name, email string) (*models.Participant, error) {
	p := &models.Participant{
		ID:        uuid.New().String(),
		MeetingID: meetingID,
		Name:      name,
		Email:     email,
		JoinedAt:  time.Now().UTC(),
	}

	if err := s.meetings.AddParticipant(ctx, p); err != nil {
		s.log.Error().Err(err).Str("meetingId", meetingID).Msg("Error adding participant")
		return nil, fmt.Errorf("add participant: %w", err)
	}

	s.log.Debug().
		Str("meetingId", meetingID).
		Str("participantId", p.ID).
		Msg("Participant added")
	return p, nil
}

// ParticipantCount returns the number of participants of a meeting.
func (s *Service) ParticipantCount(ctx context.Context, meetingID string) (int, error) {
	participants, err := s.meetings.ListParticipants(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	return len(participants), nil
}

// Exists reports whether a meeting exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.meetings.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FullTranscript joins a meeting's fragments into "speaker: text" lines.
func (s *Service) FullTranscript(ctx context.Context, meetingID string) (string, error) {
	fragments, err := s.transcripts.ListByMeeting(ctx, meetingID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	lines := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.SpeakerName != "" {
			lines = append(lines, f.SpeakerName+": "+f.Text)
		} else {
			lines = append(lines, f.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
