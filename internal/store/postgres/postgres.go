// Package postgres provides the PostgreSQL-backed store implementation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/store"
)

// New connects to the database and returns a store backed by it.
func New(ctx context.Context, url string) (*store.Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &store.Store{
		Meetings:    &meetingStore{db: pool},
		Transcripts: &transcriptStore{db: pool},
		Reports:     &reportStore{db: pool},
		Questions:   &questionStore{db: pool},
	}, nil
}

type meetingStore struct {
	db *pgxpool.Pool
}

func (s *meetingStore) Create(ctx context.Context, m *models.Meeting) error {
	query := `
		INSERT INTO meetings (
			id, title, meeting_url, platform, status, host_id, user_id,
			start_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Exec(ctx, query,
		m.ID, m.Title, nullString(m.MeetingURL), m.Platform, m.Status,
		m.HostID, m.UserID, m.StartTime, m.CreatedAt,
	)
	return err
}

func (s *meetingStore) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := `
		SELECT id, title, meeting_url, platform, status, host_id, user_id,
			start_time, end_time, created_at
		FROM meetings WHERE id = $1`

	m, err := scanMeeting(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *meetingStore) ListByUser(ctx context.Context, userID string) ([]models.Meeting, error) {
	query := `
		SELECT id, title, meeting_url, platform, status, host_id, user_id,
			start_time, end_time, created_at
		FROM meetings WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *meetingStore) Update(ctx context.Context, m *models.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, meeting_url = $3, status = $4, end_time = $5
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		m.ID, m.Title, nullString(m.MeetingURL), m.Status, m.EndTime,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *meetingStore) AddParticipant(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (id, meeting_id, name, email, is_host, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		p.ID, p.MeetingID, p.Name, nullString(p.Email), p.IsHost, p.JoinedAt,
	)
	return err
}

func (s *meetingStore) ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error) {
	query := `
		SELECT id, meeting_id, name, email, is_host, joined_at, left_at
		FROM participants WHERE meeting_id = $1 ORDER BY joined_at`

	rows, err := s.db.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		var email sql.NullString
		var leftAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.MeetingID, &p.Name, &email, &p.IsHost, &p.JoinedAt, &leftAt); err != nil {
			return nil, err
		}
		p.Email = email.String
		if leftAt.Valid {
			p.LeftAt = &leftAt.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type transcriptStore struct {
	db *pgxpool.Pool
}

func (s *transcriptStore) Create(ctx context.Context, f *models.TranscriptFragment) error {
	query := `
		INSERT INTO transcripts (id, meeting_id, text, speaker_name, timestamp, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		f.ID, f.MeetingID, f.Text, nullString(f.SpeakerName), f.Timestamp, f.Confidence,
	)
	return err
}

func (s *transcriptStore) ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptFragment, error) {
	return s.query(ctx, `
		SELECT id, meeting_id, text, speaker_name, timestamp, confidence
		FROM transcripts WHERE meeting_id = $1 ORDER BY timestamp`, meetingID)
}

func (s *transcriptStore) Search(ctx context.Context, meetingID, query string) ([]models.TranscriptFragment, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.query(ctx, `
		SELECT id, meeting_id, text, speaker_name, timestamp, confidence
		FROM transcripts WHERE meeting_id = $1 AND lower(text) LIKE $2
		ORDER BY timestamp`, meetingID, pattern)
}

func (s *transcriptStore) Count(ctx context.Context, meetingID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM transcripts WHERE meeting_id = $1`, meetingID,
	).Scan(&n)
	return n, err
}

func (s *transcriptStore) query(ctx context.Context, sqlQuery string, args ...any) ([]models.TranscriptFragment, error) {
	rows, err := s.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TranscriptFragment
	for rows.Next() {
		var f models.TranscriptFragment
		var speaker sql.NullString
		if err := rows.Scan(&f.ID, &f.MeetingID, &f.Text, &speaker, &f.Timestamp, &f.Confidence); err != nil {
			return nil, err
		}
		f.SpeakerName = speaker.String
		out = append(out, f)
	}
	return out, rows.Err()
}

type reportStore struct {
	db *pgxpool.Pool
}

func (s *reportStore) Upsert(ctx context.Context, r *models.Report) error {
	actionItems, err := json.Marshal(r.ActionItems)
	if err != nil {
		return err
	}
	keyTopics, err := json.Marshal(r.KeyTopics)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (
			id, meeting_id, summary, action_items, key_topics, sentiment,
			attendee_count, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (meeting_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			action_items = EXCLUDED.action_items,
			key_topics = EXCLUDED.key_topics,
			sentiment = EXCLUDED.sentiment,
			attendee_count = EXCLUDED.attendee_count,
			generated_at = EXCLUDED.generated_at`

	_, err = s.db.Exec(ctx, query,
		r.ID, r.MeetingID, r.Summary, actionItems, keyTopics, r.Sentiment,
		r.AttendeeCount, r.GeneratedAt,
	)
	return err
}

func (s *reportStore) GetByMeeting(ctx context.Context, meetingID string) (*models.Report, error) {
	query := `
		SELECT id, meeting_id, summary, action_items, key_topics, sentiment,
			attendee_count, generated_at
		FROM reports WHERE meeting_id = $1`

	var r models.Report
	var actionItems, keyTopics []byte
	err := s.db.QueryRow(ctx, query, meetingID).Scan(
		&r.ID, &r.MeetingID, &r.Summary, &actionItems, &keyTopics,
		&r.Sentiment, &r.AttendeeCount, &r.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(actionItems, &r.ActionItems); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(keyTopics, &r.KeyTopics); err != nil {
		return nil, err
	}
	return &r, nil
}

type questionStore struct {
	db *pgxpool.Pool
}

func (s *questionStore) Create(ctx context.Context, q *models.Question) error {
	query := `
		INSERT INTO questions (id, meeting_id, user_id, question, answer, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		q.ID, q.MeetingID, q.UserID, q.Question, q.Answer, q.AskedAt,
	)
	return err
}

func (s *questionStore) ListByMeeting(ctx context.Context, meetingID string) ([]models.Question, error) {
	query := `
		SELECT id, meeting_id, user_id, question, answer, asked_at
		FROM questions WHERE meeting_id = $1 ORDER BY asked_at DESC`

	rows, err := s.db.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.MeetingID, &q.UserID, &q.Question, &q.Answer, &q.AskedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*models.Meeting, error) {
	var m models.Meeting
	var url sql.NullString
	var endTime sql.NullTime
	err := row.Scan(
		&m.ID, &m.Title, &url, &m.Platform, &m.Status, &m.HostID, &m.UserID,
		&m.StartTime, &endTime, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MeetingURL = url.String
	if endTime.Valid {
		m.EndTime = &endTime.Time
	}
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
