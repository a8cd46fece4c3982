package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/store/memory"
)

const longTranscript = "alice: we agreed to ship the beta next friday after the budget review, bob will own the release notes"

// fakeSource serves a fixed transcript
type fakeSource struct {
	transcript string
	attendees  int
}

func (f *fakeSource) FullTranscript(_ context.Context, _ string) (string, error) {
	return f.transcript, nil
}

func (f *fakeSource) ParticipantCount(_ context.Context, _ string) (int, error) {
	return f.attendees, nil
}

// scriptedClient answers by exact user prompt, with a fallback
type scriptedClient struct {
	byPrompt map[string]string
	fallback string
	err      error
}

func (c *scriptedClient) Complete(_ context.Context, system, user string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if system == llm.SentimentSystemPrompt {
		if r, ok := c.byPrompt["sentiment"]; ok {
			return r, nil
		}
	}
	if r, ok := c.byPrompt[user]; ok {
		return r, nil
	}
	return c.fallback, nil
}

func TestGenerate_RequiresMinimumTranscript(t *testing.T) {
	st := memory.New()
	svc := NewService(st.Reports, &fakeSource{transcript: "too short"}, &scriptedClient{})

	_, err := svc.Generate(context.Background(), "m-1")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestGenerate_FullReport(t *testing.T) {
	st := memory.New()
	client := &scriptedClient{
		byPrompt: map[string]string{
			llm.SummaryPrompt(longTranscript):     "Beta ships Friday.",
			llm.ActionItemsPrompt(longTranscript): `[{"task":"Write release notes","assignee":"bob"}]`,
			llm.KeyTopicsPrompt(longTranscript):   `[{"topic":"Release","summary":"Beta timing"}]`,
			"sentiment":                           "Positive",
		},
	}
	svc := NewService(st.Reports, &fakeSource{transcript: longTranscript, attendees: 2}, client)

	r, err := svc.Generate(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if r.Summary != "Beta ships Friday." {
		t.Errorf("unexpected summary: %q", r.Summary)
	}
	if len(r.ActionItems) != 1 || r.ActionItems[0].Assignee != "bob" {
		t.Errorf("unexpected action items: %+v", r.ActionItems)
	}
	if len(r.KeyTopics) != 1 || r.KeyTopics[0].Topic != "Release" {
		t.Errorf("unexpected key topics: %+v", r.KeyTopics)
	}
	if r.Sentiment != "positive" {
		t.Errorf("sentiment should be normalized, got %q", r.Sentiment)
	}
	if r.AttendeeCount != 2 {
		t.Errorf("unexpected attendee count: %d", r.AttendeeCount)
	}

	// Must be persisted
	saved, err := svc.GetByMeeting(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("report not persisted: %v", err)
	}
	if saved.ID != r.ID {
		t.Errorf("persisted report differs: %q vs %q", saved.ID, r.ID)
	}
}

func TestGenerate_InvalidSentimentFallsBackToNeutral(t *testing.T) {
	st := memory.New()
	client := &scriptedClient{
		byPrompt: map[string]string{"sentiment": "ecstatic"},
		fallback: "[]",
	}
	client.byPrompt[llm.SummaryPrompt(longTranscript)] = "A summary."

	svc := NewService(st.Reports, &fakeSource{transcript: longTranscript}, client)

	r, err := svc.Generate(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if r.Sentiment != "neutral" {
		t.Errorf("expected neutral fallback, got %q", r.Sentiment)
	}
}

func TestGenerate_SummaryFailureIsFatal(t *testing.T) {
	st := memory.New()
	client := &scriptedClient{err: errors.New("model unavailable")}
	svc := NewService(st.Reports, &fakeSource{transcript: longTranscript}, client)

	_, err := svc.Generate(context.Background(), "m-1")
	if err == nil || !strings.Contains(err.Error(), "generate summary") {
		t.Fatalf("expected summary failure, got %v", err)
	}
}
