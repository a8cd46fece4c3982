package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meeting-ai-orchestrator/internal/agent"
	"meeting-ai-orchestrator/internal/broker"
	"meeting-ai-orchestrator/internal/intent"
	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/service/meeting"
	"meeting-ai-orchestrator/internal/service/question"
	"meeting-ai-orchestrator/internal/service/report"
	"meeting-ai-orchestrator/internal/service/transcript"
	"meeting-ai-orchestrator/internal/store"
	"meeting-ai-orchestrator/internal/store/memory"
	"meeting-ai-orchestrator/internal/stream"
)

// greetingRouter classifies everything as small talk
type greetingRouter struct{}

func (greetingRouter) Route(_ context.Context, message, _ string) intent.RouterResult {
	return intent.RouterResult{
		Intent:          intent.Chat,
		Confidence:      0.9,
		Entities:        map[string]string{},
		OriginalMessage: message,
	}
}

type staticClient struct{}

func (staticClient) Complete(_ context.Context, _, _ string) (string, error) {
	return "ok", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	st := memory.New()
	meetingSvc := meeting.NewService(st.Meetings, st.Transcripts)
	transcriptSvc := transcript.NewService(st.Transcripts)
	client := staticClient{}
	reportSvc := report.NewService(st.Reports, meetingSvc, client)
	questionSvc := question.NewService(st.Questions, meetingSvc, client)

	dispatcher := agent.NewDispatcher(greetingRouter{}, meetingSvc, transcriptSvc, reportSvc, questionSvc, client)

	registry := stream.NewRegistry()
	streamHandler := stream.NewHandler(broker.New(&broker.Config{}), registry)

	srv := httptest.NewServer(NewRouter(dispatcher, streamHandler, registry, meetingSvc, transcriptSvc, questionSvc, reportSvc))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestChat_RequiresUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func postChat(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestChat_ValidatesMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"missing message", `{}`},
		{"not json", `hello`},
		{"too long", `{"message":"` + strings.Repeat("a", 2001) + `"}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := postChat(t, srv, c.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestChat_ReturnsActionResponse(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postChat(t, srv, `{"message":"hello there"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var action models.ActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !action.Success {
		t.Errorf("expected success, got %+v", action)
	}
	if action.Intent != "chat" {
		t.Errorf("expected chat intent, got %q", action.Intent)
	}
}

func TestMeetings_CreateAndGet(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/meetings",
		strings.NewReader(`{"title":"Planning","platform":"ZOOM"}`))
	req.Header.Set("X-User-Id", "u-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created models.Meeting
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if created.Title != "Planning" || created.Platform != "ZOOM" {
		t.Errorf("unexpected meeting: %+v", created)
	}

	getResp, err := http.Get(srv.URL + "/v1/meetings/" + created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", getResp.StatusCode)
	}
}

func TestMeetings_CreateRequiresUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/meetings", "application/json", strings.NewReader(`{"title":"x"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMeetings_GetMissing(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/meetings/does-not-exist")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMeetings_ListTranscripts(t *testing.T) {
	srv, st := newTestServer(t)

	st.Transcripts.Create(context.Background(), &models.TranscriptFragment{
		ID: "t-1", MeetingID: "m-1", Text: "hello",
	})

	resp, err := http.Get(srv.URL + "/v1/meetings/m-1/transcripts")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var fragments []models.TranscriptFragment
	if err := json.NewDecoder(resp.Body).Decode(&fragments); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(fragments) != 1 || fragments[0].Text != "hello" {
		t.Errorf("unexpected fragments: %+v", fragments)
	}
}

func TestMeetings_ListByUser(t *testing.T) {
	srv, _ := newTestServer(t)

	// Unauthenticated list is rejected
	resp, err := http.Get(srv.URL + "/v1/meetings")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}

	createReq, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/meetings", strings.NewReader(`{"title":"Retro"}`))
	createReq.Header.Set("X-User-Id", "u-1")
	createResp, err := http.DefaultClient.Do(createReq)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	createResp.Body.Close()

	listReq, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/meetings", nil)
	listReq.Header.Set("X-User-Id", "u-1")
	listResp, err := http.DefaultClient.Do(listReq)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	defer listResp.Body.Close()

	var meetings []models.Meeting
	if err := json.NewDecoder(listResp.Body).Decode(&meetings); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(meetings) != 1 || meetings[0].Title != "Retro" {
		t.Errorf("unexpected meetings: %+v", meetings)
	}
}

func TestTranscripts_SearchAndCount(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	st.Transcripts.Create(ctx, &models.TranscriptFragment{MeetingID: "m-1", Text: "the budget is final"})
	st.Transcripts.Create(ctx, &models.TranscriptFragment{MeetingID: "m-1", Text: "lunch plans"})

	resp, err := http.Get(srv.URL + "/v1/meetings/m-1/transcripts?q=budget")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	defer resp.Body.Close()

	var matches []models.TranscriptFragment
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Text != "the budget is final" {
		t.Errorf("unexpected matches: %+v", matches)
	}

	countResp, err := http.Get(srv.URL + "/v1/meetings/m-1/transcripts/count")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	defer countResp.Body.Close()

	var count map[string]int
	if err := json.NewDecoder(countResp.Body).Decode(&count); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if count["count"] != 2 {
		t.Errorf("expected count 2, got %d", count["count"])
	}
}

func TestQuestions_History(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/meetings/m-1/questions")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var history []models.Question
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	resp.Body.Close()
	if len(history) != 0 {
		t.Errorf("expected empty history, got %+v", history)
	}

	st.Questions.Create(context.Background(), &models.Question{
		ID: "q-1", MeetingID: "m-1", Question: "when?", Answer: "friday",
	})

	resp, err = http.Get(srv.URL + "/v1/meetings/m-1/questions")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(history) != 1 || history[0].Answer != "friday" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestReport_GenerateAndGet(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	// No report yet
	resp, err := http.Get(srv.URL + "/v1/meetings/m-1/report")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before generation, got %d", resp.StatusCode)
	}

	// Unknown meeting cannot be generated against
	genResp, err := http.Post(srv.URL+"/v1/meetings/m-missing/report", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	genResp.Body.Close()
	if genResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown meeting, got %d", genResp.StatusCode)
	}

	createReq, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/meetings", strings.NewReader(`{"title":"Planning"}`))
	createReq.Header.Set("X-User-Id", "u-1")
	createResp, err := http.DefaultClient.Do(createReq)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var created models.Meeting
	if err := json.NewDecoder(createResp.Body).Decode(&created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	createResp.Body.Close()

	// Empty transcript cannot back a report
	genResp, err = http.Post(srv.URL+"/v1/meetings/"+created.ID+"/report", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	genResp.Body.Close()
	if genResp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with no transcript, got %d", genResp.StatusCode)
	}

	st.Transcripts.Create(ctx, &models.TranscriptFragment{
		MeetingID: created.ID,
		Text:      "we agreed the beta ships next friday after the final budget review is signed off",
	})

	genResp, err = http.Post(srv.URL+"/v1/meetings/"+created.ID+"/report", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer genResp.Body.Close()
	if genResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", genResp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/v1/meetings/" + created.ID + "/report")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after generation, got %d", getResp.StatusCode)
	}
}

func TestStreamStats(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/stream/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var stats stream.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if stats.ActiveConnections != 0 {
		t.Errorf("expected 0 connections, got %d", stats.ActiveConnections)
	}
}
