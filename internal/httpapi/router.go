// Package httpapi is the HTTP surface of the orchestrator: health probes, the
// audio stream endpoint, the conversational chat endpoint and a small meeting
// REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/agent"
	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/service/meeting"
	"meeting-ai-orchestrator/internal/service/report"
	"meeting-ai-orchestrator/internal/store"
	"meeting-ai-orchestrator/internal/stream"
)

// MaxChatMessageLength bounds a single chat message.
const MaxChatMessageLength = 2000

// TranscriptService is the transcript read surface exposed over REST.
type TranscriptService interface {
	ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptFragment, error)
	Search(ctx context.Context, meetingID, query string) ([]models.TranscriptFragment, error)
	Count(ctx context.Context, meetingID string) (int, error)
}

// QuestionService is the question history surface exposed over REST.
type QuestionService interface {
	ListByMeeting(ctx context.Context, meetingID string) ([]models.Question, error)
}

// ReportService is the report surface exposed over REST.
type ReportService interface {
	Generate(ctx context.Context, meetingID string) (*models.Report, error)
	GetByMeeting(ctx context.Context, meetingID string) (*models.Report, error)
}

// API bundles the handlers behind the router.
type API struct {
	dispatcher  *agent.Dispatcher
	registry    *stream.Registry
	meetings    agent.MeetingService
	transcripts TranscriptService
	questions   QuestionService
	reports     ReportService
	log         zerolog.Logger
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(
	dispatcher *agent.Dispatcher,
	streamHandler *stream.Handler,
	registry *stream.Registry,
	meetings agent.MeetingService,
	transcripts TranscriptService,
	questions QuestionService,
	reports ReportService,
) http.Handler {
	api := &API{
		dispatcher:  dispatcher,
		registry:    registry,
		meetings:    meetings,
		transcripts: transcripts,
		questions:   questions,
		reports:     reports,
		log:         logging.WithComponent("http"),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stream", streamHandler.ServeHTTP)
		r.Get("/stream/stats", api.streamStats)
		r.Post("/chat", api.chat)
		r.Post("/meetings", api.createMeeting)
		r.Get("/meetings", api.listMeetings)
		r.Get("/meetings/{meetingID}", api.getMeeting)
		r.Get("/meetings/{meetingID}/transcripts", api.listTranscripts)
		r.Get("/meetings/{meetingID}/transcripts/count", api.countTranscripts)
		r.Get("/meetings/{meetingID}/questions", api.listQuestions)
		r.Get("/meetings/{meetingID}/report", api.getReport)
		r.Post("/meetings/{meetingID}/report", api.generateReport)
	})

	return r
}

func (a *API) streamStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.Stats())
}

// chat requires an X-User-Id header and a message of 1 to 2000 characters.
func (a *API) chat(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-Id header is required")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > MaxChatMessageLength {
		writeError(w, http.StatusBadRequest, "message exceeds 2000 characters")
		return
	}
	req.UserID = userID

	resp := a.dispatcher.Chat(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

type createMeetingRequest struct {
	Title      string `json:"title"`
	MeetingURL string `json:"meetingUrl"`
	Platform   string `json:"platform"`
}

func (a *API) createMeeting(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-Id header is required")
		return
	}

	var req createMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := a.meetings.Create(r.Context(), meeting.CreateInput{
		Title:      req.Title,
		MeetingURL: req.MeetingURL,
		Platform:   req.Platform,
		HostID:     userID,
		UserID:     userID,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("Create meeting failed")
		writeError(w, http.StatusInternalServerError, "failed to create meeting")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (a *API) getMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	m, err := a.meetings.GetByID(r.Context(), meetingID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Get meeting failed")
		writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (a *API) listMeetings(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-Id header is required")
		return
	}

	meetings, err := a.meetings.ListByUser(r.Context(), userID)
	if err != nil {
		a.log.Error().Err(err).Msg("List meetings failed")
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}

	writeJSON(w, http.StatusOK, meetings)
}

// listTranscripts returns a meeting's fragments; with ?q= it returns only the
// fragments matching the query.
func (a *API) listTranscripts(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	var fragments []models.TranscriptFragment
	var err error
	if query := r.URL.Query().Get("q"); query != "" {
		fragments, err = a.transcripts.Search(r.Context(), meetingID, query)
	} else {
		fragments, err = a.transcripts.ListByMeeting(r.Context(), meetingID)
	}
	if err != nil {
		a.log.Error().Err(err).Msg("List transcripts failed")
		writeError(w, http.StatusInternalServerError, "failed to load transcripts")
		return
	}
	if fragments == nil {
		fragments = []models.TranscriptFragment{}
	}

	writeJSON(w, http.StatusOK, fragments)
}

func (a *API) countTranscripts(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	n, err := a.transcripts.Count(r.Context(), meetingID)
	if err != nil {
		a.log.Error().Err(err).Msg("Count transcripts failed")
		writeError(w, http.StatusInternalServerError, "failed to count transcripts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	questions, err := a.questions.ListByMeeting(r.Context(), meetingID)
	if err != nil {
		a.log.Error().Err(err).Msg("List questions failed")
		writeError(w, http.StatusInternalServerError, "failed to load questions")
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}

	writeJSON(w, http.StatusOK, questions)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	rep, err := a.reports.GetByMeeting(r.Context(), meetingID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no report for this meeting")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Get report failed")
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (a *API) generateReport(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	exists, err := a.meetings.Exists(r.Context(), meetingID)
	if err != nil {
		a.log.Error().Err(err).Msg("Meeting lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}

	rep, err := a.reports.Generate(r.Context(), meetingID)
	if errors.Is(err, report.ErrInsufficientData) {
		writeError(w, http.StatusUnprocessableEntity, "not enough transcript to generate a report")
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Generate report failed")
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
