// Package question answers user questions about meetings and keeps the
// question/answer history.
package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/store"
)

// ErrNoTranscript is returned when a question is asked about a meeting
// without any transcript.
var ErrNoTranscript = errors.New("no transcript available for this meeting")

// TranscriptSource supplies the full transcript for a meeting.
type TranscriptSource interface {
	FullTranscript(ctx context.Context, meetingID string) (string, error)
}

// Service answers questions against meeting transcripts.
type Service struct {
	questions store.QuestionStore
	source    TranscriptSource
	client    llm.Client
	log       zerolog.Logger
}

// NewService creates the question service.
func NewService(questions store.QuestionStore, source TranscriptSource, client llm.Client) *Service {
	return &Service{
		questions: questions,
		source:    source,
		client:    client,
		log:       logging.WithComponent("question"),
	}
}

// Ask answers a question from the meeting transcript and persists the pair.
func (s *Service) Ask(ctx context.Context, meetingID, userID, questionText string) (*models.Question, error) {
	transcript, err := s.source.FullTranscript(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if transcript == "" {
		return nil, ErrNoTranscript
	}

	answer, err := s.client.Complete(ctx, "", llm.AnswerQuestionPrompt(transcript, questionText))
	if err != nil {
		s.log.Error().Err(err).Str("meetingId", meetingID).Msg("Error answering question")
		return nil, fmt.Errorf("answer question: %w", err)
	}

	q := &models.Question{
		ID:        uuid.New().String(),
		MeetingID: meetingID,
		UserID:    userID,
		Question:  questionText,
		Answer:    answer,
		AskedAt:   time.Now().UTC(),
	}

	if err := s.questions.Create(ctx, q); err != nil {
		s.log.Error().Err(err).Str("meetingId", meetingID).Msg("Error saving question")
		return nil, fmt.Errorf("save question: %w", err)
	}

	s.log.Info().Str("meetingId", meetingID).Str("questionId", q.ID).Msg("Question answered")
	return q, nil
}

// ListByMeeting returns a meeting's question history, newest first.
func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]models.Question, error) {
	return s.questions.ListByMeeting(ctx, meetingID)
}
