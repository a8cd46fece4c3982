// Package models defines the data structures shared across the service.
package models

import "time"

// AudioMetadata travels with every audio chunk pushed to the queue.
type AudioMetadata struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

// AudioEnvelope is the outbound queue message carrying one audio chunk
// to the external transcription engine. Audio is base64 on the wire.
type AudioEnvelope struct {
	MeetingID string        `json:"meetingId"`
	Timestamp int64         `json:"timestamp"`
	Audio     string        `json:"audio"`
	Metadata  AudioMetadata `json:"metadata"`
}

// TranscriptFragment is one recognized-text message from the transcription
// engine, persisted in arrival order per meeting.
type TranscriptFragment struct {
	ID          string    `json:"id,omitempty"`
	MeetingID   string    `json:"meetingId"`
	Text        string    `json:"text"`
	SpeakerName string    `json:"speakerName,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Confidence  float64   `json:"confidence"`
}

// Meeting status values.
const (
	MeetingStatusActive    = "ACTIVE"
	MeetingStatusEnded     = "ENDED"
	MeetingStatusCancelled = "CANCELLED"
)

// Meeting platform values.
const (
	PlatformGoogleMeet = "GOOGLE_MEET"
	PlatformZoom       = "ZOOM"
	PlatformTeams      = "TEAMS"
	PlatformOther      = "OTHER"
)

// Meeting is a conferencing session tracked by the service.
type Meeting struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	MeetingURL string     `json:"meetingUrl,omitempty"`
	Platform   string     `json:"platform"`
	Status     string     `json:"status"`
	HostID     string     `json:"hostId"`
	UserID     string     `json:"userId"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Participant is someone attending a meeting.
type Participant struct {
	ID        string     `json:"id"`
	MeetingID string     `json:"meetingId"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	IsHost    bool       `json:"isHost"`
	JoinedAt  time.Time  `json:"joinedAt"`
	LeftAt    *time.Time `json:"leftAt,omitempty"`
}

// ActionItem is one task extracted from a meeting transcript.
type ActionItem struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee,omitempty"`
	Deadline string `json:"deadline,omitempty"`
}

// KeyTopic is one discussion topic extracted from a meeting transcript.
type KeyTopic struct {
	Topic   string `json:"topic"`
	Summary string `json:"summary"`
}

// Report is a generated meeting report, one per meeting.
type Report struct {
	ID            string       `json:"id"`
	MeetingID     string       `json:"meetingId"`
	Summary       string       `json:"summary"`
	ActionItems   []ActionItem `json:"actionItems"`
	KeyTopics     []KeyTopic   `json:"keyTopics"`
	Sentiment     string       `json:"sentiment"`
	AttendeeCount int          `json:"attendeeCount"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}

// Question is a persisted question/answer pair about a meeting.
type Question struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	UserID    string    `json:"userId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	AskedAt   time.Time `json:"askedAt"`
}

// ChatRequest is the inbound chat action request.
type ChatRequest struct {
	Message   string `json:"message"`
	MeetingID string `json:"meetingId,omitempty"`
	UserID    string `json:"-"`
}

// ActionResponse is the uniform envelope returned for every chat action,
// regardless of which handler ran.
type ActionResponse struct {
	Success bool   `json:"success"`
	Intent  string `json:"intent"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
