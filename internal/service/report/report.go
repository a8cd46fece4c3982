// Package report generates and stores meeting reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/store"
)

// MinTranscriptLength is the minimum transcript size (in characters) a
// report can be generated from.
const MinTranscriptLength = 50

// ErrInsufficientData is returned when the transcript is too short to
// produce a meaningful report.
var ErrInsufficientData = errors.New("insufficient transcript data to generate report")

var validSentiments = map[string]bool{
	"positive": true,
	"negative": true,
	"neutral":  true,
	"mixed":    true,
}

// TranscriptSource supplies the full transcript and attendee count for a
// meeting; the meeting service implements it.
type TranscriptSource interface {
	FullTranscript(ctx context.Context, meetingID string) (string, error)
	ParticipantCount(ctx context.Context, meetingID string) (int, error)
}

// Service generates reports from transcripts via the language model.
type Service struct {
	reports store.ReportStore
	source  TranscriptSource
	client  llm.Client
	log     zerolog.Logger
}

// NewService creates the report service.
func NewService(reports store.ReportStore, source TranscriptSource, client llm.Client) *Service {
	return &Service{
		reports: reports,
		source:  source,
		client:  client,
		log:     logging.WithComponent("report"),
	}
}

// Generate builds a report for the meeting and upserts it. It requires a
// transcript of at least MinTranscriptLength characters.
func (s *Service) Generate(ctx context.Context, meetingID string) (*models.Report, error) {
	transcript, err := s.source.FullTranscript(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if len(transcript) < MinTranscriptLength {
		return nil, ErrInsufficientData
	}

	attendees, err := s.source.ParticipantCount(ctx, meetingID)
	if err != nil {
		s.log.Warn().Err(err).Str("meetingId", meetingID).Msg("Could not count attendees")
		attendees = 0
	}

	summary, err := s.client.Complete(ctx, "", llm.SummaryPrompt(transcript))
	if err != nil {
		s.log.Error().Err(err).Str("meetingId", meetingID).Msg("Error generating summary")
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	r := &models.Report{
		ID:            uuid.New().String(),
		MeetingID:     meetingID,
		Summary:       summary,
		ActionItems:   s.extractActionItems(ctx, transcript),
		KeyTopics:     s.extractKeyTopics(ctx, transcript),
		Sentiment:     s.analyzeSentiment(ctx, transcript),
		AttendeeCount: attendees,
		GeneratedAt:   time.Now().UTC(),
	}

	if err := s.reports.Upsert(ctx, r); err != nil {
		s.log.Error().Err(err).Str("meetingId", meetingID).Msg("Error saving report")
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.log.Info().Str("meetingId", meetingID).Str("reportId", r.ID).Msg("Report generated")
	return r, nil
}

// GetByMeeting returns the meeting's report, or store.ErrNotFound.
func (s *Service) GetByMeeting(ctx context.Context, meetingID string) (*models.Report, error) {
	return s.reports.GetByMeeting(ctx, meetingID)
}

// ExtractActionItems pulls action items out of a transcript. Model failures
// degrade to an empty list rather than failing the report.
func (s *Service) extractActionItems(ctx context.Context, transcript string) []models.ActionItem {
	response, err := s.client.Complete(ctx, "", llm.ActionItemsPrompt(transcript))
	if err != nil {
		s.log.Error().Err(err).Msg("Error extracting action items")
		return []models.ActionItem{}
	}
	items := llm.ParseJSONArray[models.ActionItem](response)
	if items == nil {
		return []models.ActionItem{}
	}
	return items
}

func (s *Service) extractKeyTopics(ctx context.Context, transcript string) []models.KeyTopic {
	response, err := s.client.Complete(ctx, "", llm.KeyTopicsPrompt(transcript))
	if err != nil {
		s.log.Error().Err(err).Msg("Error extracting key topics")
		return []models.KeyTopic{}
	}
	topics := llm.ParseJSONArray[models.KeyTopic](response)
	if topics == nil {
		return []models.KeyTopic{}
	}
	return topics
}

func (s *Service) analyzeSentiment(ctx context.Context, transcript string) string {
	response, err := s.client.Complete(ctx, llm.SentimentSystemPrompt,
		"Analyze the sentiment of this meeting:\n\n"+transcript)
	if err != nil {
		s.log.Error().Err(err).Msg("Error analyzing sentiment")
		return "neutral"
	}
	sentiment := strings.ToLower(strings.TrimSpace(response))
	if !validSentiments[sentiment] {
		return "neutral"
	}
	return sentiment
}
