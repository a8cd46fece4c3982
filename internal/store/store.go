// Package store defines the small CRUD-style persistence interfaces the
// domain services consume. The schema and query engine behind them are not
// this service's concern.
package store

import (
	"context"
	"errors"

	"meeting-ai-orchestrator/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// MeetingStore persists meetings and participants.
type MeetingStore interface {
	Create(ctx context.Context, m *models.Meeting) error
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	ListByUser(ctx context.Context, userID string) ([]models.Meeting, error)
	Update(ctx context.Context, m *models.Meeting) error
	AddParticipant(ctx context.Context, p *models.Participant) error
	ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error)
}

// TranscriptStore persists transcript fragments in append order per meeting.
type TranscriptStore interface {
	Create(ctx context.Context, f *models.TranscriptFragment) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptFragment, error)
	Search(ctx context.Context, meetingID, query string) ([]models.TranscriptFragment, error)
	Count(ctx context.Context, meetingID string) (int, error)
}

// ReportStore persists at most one report per meeting.
type ReportStore interface {
	Upsert(ctx context.Context, r *models.Report) error
	GetByMeeting(ctx context.Context, meetingID string) (*models.Report, error)
}

// QuestionStore persists question/answer history.
type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.Question, error)
}

// Store bundles the per-aggregate stores behind one injection point.
type Store struct {
	Meetings    MeetingStore
	Transcripts TranscriptStore
	Reports     ReportStore
	Questions   QuestionStore
}
