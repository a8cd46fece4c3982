package meeting

import (
	"context"
	"testing"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/store/memory"
)

func newTestService() *Service {
	st := memory.New()
	return NewService(st.Meetings, st.Transcripts)
}

func TestCreate_Defaults(t *testing.T) {
	svc := newTestService()

	m, err := svc.Create(context.Background(), CreateInput{UserID: "u-1", HostID: "u-1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if m.ID == "" {
		t.Error("expected generated ID")
	}
	if m.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", m.Title)
	}
	if m.Platform != models.PlatformGoogleMeet {
		t.Errorf("expected default platform, got %q", m.Platform)
	}
	if m.Status != models.MeetingStatusActive {
		t.Errorf("expected active status, got %q", m.Status)
	}
	if m.StartTime.IsZero() {
		t.Error("expected start time to be set")
	}
}

func TestCreate_WhitespaceTitleFallsBack(t *testing.T) {
	svc := newTestService()

	m, err := svc.Create(context.Background(), CreateInput{Title: "   ", UserID: "u-1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if m.Title != DefaultTitle {
		t.Errorf("expected default title for blank input, got %q", m.Title)
	}
}

func TestEnd_SetsStatusAndEndTime(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, CreateInput{Title: "Planning", UserID: "u-1"})

	ended, err := svc.End(ctx, m.ID)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended.Status != models.MeetingStatusEnded {
		t.Errorf("expected ended status, got %q", ended.Status)
	}
	if ended.EndTime == nil {
		t.Error("expected end time to be set")
	}

	// Change must be persisted
	got, _ := svc.GetByID(ctx, m.ID)
	if got.Status != models.MeetingStatusEnded {
		t.Errorf("end not persisted: %q", got.Status)
	}
}

func TestExists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "nope")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if ok {
		t.Error("missing meeting should not exist")
	}

	m, _ := svc.Create(ctx, CreateInput{Title: "Sync", UserID: "u-1"})
	ok, _ = svc.Exists(ctx, m.ID)
	if !ok {
		t.Error("created meeting should exist")
	}
}

func TestAddParticipantAndCount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, CreateInput{Title: "Sync", UserID: "u-1"})

	if _, err := svc.AddParticipant(ctx, m.ID, "Alice", "alice@example.com"); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}
	if _, err := svc.AddParticipant(ctx, m.ID, "Bob", ""); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}

	n, err := svc.ParticipantCount(ctx, m.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 participants, got %d", n)
	}
}

func TestFullTranscript_SpeakerPrefixes(t *testing.T) {
	st := memory.New()
	svc := NewService(st.Meetings, st.Transcripts)
	ctx := context.Background()

	st.Transcripts.Create(ctx, &models.TranscriptFragment{MeetingID: "m-1", Text: "hello", SpeakerName: "alice"})
	st.Transcripts.Create(ctx, &models.TranscriptFragment{MeetingID: "m-1", Text: "no speaker here"})

	got, err := svc.FullTranscript(ctx, "m-1")
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	want := "alice: hello\nno speaker here"
	if got != want {
		t.Errorf("unexpected transcript:\n%q\nwant:\n%q", got, want)
	}
}

func TestFullTranscript_Empty(t *testing.T) {
	svc := newTestService()

	got, err := svc.FullTranscript(context.Background(), "m-empty")
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty transcript, got %q", got)
	}
}
