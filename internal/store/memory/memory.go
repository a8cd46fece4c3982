// Package memory provides an in-memory store implementation, used when no
// database is configured and throughout the test suite.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/store"
)

// New returns a store backed by process memory.
func New() *store.Store {
	db := &state{
		meetings:     make(map[string]models.Meeting),
		participants: make(map[string][]models.Participant),
		transcripts:  make(map[string][]models.TranscriptFragment),
		reports:      make(map[string]models.Report),
		questions:    make(map[string][]models.Question),
	}
	return &store.Store{
		Meetings:    (*meetingStore)(db),
		Transcripts: (*transcriptStore)(db),
		Reports:     (*reportStore)(db),
		Questions:   (*questionStore)(db),
	}
}

type state struct {
	mu           sync.RWMutex
	meetings     map[string]models.Meeting
	participants map[string][]models.Participant
	transcripts  map[string][]models.TranscriptFragment
	reports      map[string]models.Report
	questions    map[string][]models.Question
}

type meetingStore state

func (s *meetingStore) Create(_ context.Context, m *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = *m
	return nil
}

func (s *meetingStore) GetByID(_ context.Context, id string) (*models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *meetingStore) ListByUser(_ context.Context, userID string) ([]models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Meeting
	for _, m := range s.meetings {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *meetingStore) Update(_ context.Context, m *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[m.ID]; !ok {
		return store.ErrNotFound
	}
	s.meetings[m.ID] = *m
	return nil
}

func (s *meetingStore) AddParticipant(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[p.MeetingID]; !ok {
		return store.ErrNotFound
	}
	s.participants[p.MeetingID] = append(s.participants[p.MeetingID], *p)
	return nil
}

func (s *meetingStore) ListParticipants(_ context.Context, meetingID string) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Participant(nil), s.participants[meetingID]...), nil
}

type transcriptStore state

func (s *transcriptStore) Create(_ context.Context, f *models.TranscriptFragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[f.MeetingID] = append(s.transcripts[f.MeetingID], *f)
	return nil
}

func (s *transcriptStore) ListByMeeting(_ context.Context, meetingID string) ([]models.TranscriptFragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TranscriptFragment(nil), s.transcripts[meetingID]...), nil
}

func (s *transcriptStore) Search(_ context.Context, meetingID, query string) ([]models.TranscriptFragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.TranscriptFragment
	for _, f := range s.transcripts[meetingID] {
		if strings.Contains(strings.ToLower(f.Text), q) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *transcriptStore) Count(_ context.Context, meetingID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcripts[meetingID]), nil
}

type reportStore state

func (s *reportStore) Upsert(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.reports[r.MeetingID]; ok {
		r.ID = existing.ID
	}
	s.reports[r.MeetingID] = *r
	return nil
}

func (s *reportStore) GetByMeeting(_ context.Context, meetingID string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[meetingID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

type questionStore state

func (s *questionStore) Create(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.MeetingID] = append(s.questions[q.MeetingID], *q)
	return nil
}

func (s *questionStore) ListByMeeting(_ context.Context, meetingID string) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Question(nil), s.questions[meetingID]...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].AskedAt.After(out[j].AskedAt)
	})
	return out, nil
}
