// Package agent turns classified chat messages into domain actions and
// produces the uniform response envelope.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/intent"
	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/observability/metrics"
	"meeting-ai-orchestrator/internal/service/meeting"
	"meeting-ai-orchestrator/internal/service/question"
	"meeting-ai-orchestrator/internal/service/report"
	"meeting-ai-orchestrator/internal/store"
)

// Router classifies one chat message.
type Router interface {
	Route(ctx context.Context, message, meetingID string) intent.RouterResult
}

// MeetingService is the meeting operations the dispatcher needs.
type MeetingService interface {
	Create(ctx context.Context, in meeting.CreateInput) (*models.Meeting, error)
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	ListByUser(ctx context.Context, userID string) ([]models.Meeting, error)
	End(ctx context.Context, id string) (*models.Meeting, error)
	AddParticipant(ctx context.Context, meetingID, name, email string) (*models.Participant, error)
	Exists(ctx context.Context, id string) (bool, error)
	FullTranscript(ctx context.Context, meetingID string) (string, error)
}

// TranscriptService is the transcript operations the dispatcher needs.
type TranscriptService interface {
	Formatted(ctx context.Context, meetingID string) (string, error)
	Search(ctx context.Context, meetingID, query string) ([]models.TranscriptFragment, error)
}

// ReportService is the report operations the dispatcher needs.
type ReportService interface {
	Generate(ctx context.Context, meetingID string) (*models.Report, error)
	GetByMeeting(ctx context.Context, meetingID string) (*models.Report, error)
}

// QuestionService is the question operations the dispatcher needs.
type QuestionService interface {
	Ask(ctx context.Context, meetingID, userID, questionText string) (*models.Question, error)
}

// Dispatcher routes chat messages and executes the matching action. It never
// returns an error or panics to its caller: every outcome is an
// ActionResponse.
type Dispatcher struct {
	router      Router
	meetings    MeetingService
	transcripts TranscriptService
	reports     ReportService
	questions   QuestionService
	client      llm.Client
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(
	router Router,
	meetings MeetingService,
	transcripts TranscriptService,
	reports ReportService,
	questions QuestionService,
	client llm.Client,
) *Dispatcher {
	return &Dispatcher{
		router:      router,
		meetings:    meetings,
		transcripts: transcripts,
		reports:     reports,
		questions:   questions,
		client:      client,
		metrics:     metrics.DefaultMetrics,
		log:         logging.WithComponent("agent"),
	}
}

// Chat classifies the request and dispatches the resolved intent.
func (d *Dispatcher) Chat(ctx context.Context, req models.ChatRequest) models.ActionResponse {
	routed := d.router.Route(ctx, req.Message, req.MeetingID)

	d.log.Info().
		Str("intent", string(routed.Intent)).
		Float64("confidence", routed.Confidence).
		Msg("Routed")

	return d.Dispatch(ctx, routed, req.UserID)
}

// Dispatch executes the handler for an already-classified message. Handler
// panics and unexpected errors are converted into a generic failure response.
func (d *Dispatcher) Dispatch(ctx context.Context, routed intent.RouterResult, userID string) (resp models.ActionResponse) {
	start := time.Now()

	defer func() {
		d.metrics.RecordDispatch(string(routed.Intent), time.Since(start).Seconds())
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("intent", string(routed.Intent)).
				Msg("Handler panicked")
			d.metrics.DispatchErrors.Inc()
			resp = genericFailure(routed.Intent, fmt.Sprintf("panic: %v", r))
		}
	}()

	resp, err := d.handle(ctx, routed, userID)
	if err != nil {
		d.log.Error().Err(err).Str("intent", string(routed.Intent)).Msg("Agent error")
		d.metrics.DispatchErrors.Inc()
		return genericFailure(routed.Intent, err.Error())
	}
	return resp
}

// handle is the exhaustive dispatch table. Semantic failures (missing
// entities, missing resources) come back as responses; only unexpected
// collaborator failures come back as errors.
func (d *Dispatcher) handle(ctx context.Context, routed intent.RouterResult, userID string) (models.ActionResponse, error) {
	switch routed.Intent {
	case intent.GenerateReport:
		return d.generateReport(ctx, routed)
	case intent.GetReport:
		return d.getReport(ctx, routed)
	case intent.AskQuestion:
		return d.askQuestion(ctx, routed, userID)
	case intent.GetSummary:
		return d.getSummary(ctx, routed)
	case intent.GetActionItems:
		return d.getActionItems(ctx, routed)
	case intent.GetTranscripts:
		return d.getTranscripts(ctx, routed)
	case intent.SearchTranscripts:
		return d.searchTranscripts(ctx, routed)
	case intent.GetMeetingInfo:
		return d.getMeetingInfo(ctx, routed)
	case intent.ListMeetings:
		return d.listMeetings(ctx, routed, userID)
	case intent.CreateMeeting:
		return d.createMeeting(ctx, routed, userID)
	case intent.EndMeeting:
		return d.endMeeting(ctx, routed)
	case intent.AddParticipant:
		return d.addParticipant(ctx, routed)
	case intent.Chat:
		return d.smallTalk(routed)
	case intent.Unknown:
		return d.unknown(routed)
	}
	// Unreachable while RouterResult.Intent stays inside the enumeration.
	return d.unknown(routed)
}

func (d *Dispatcher) generateReport(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting should I generate a report for?", "Missing meetingId"), nil
	}

	exists, err := d.meetings.Exists(ctx, meetingID)
	if err != nil {
		return models.ActionResponse{}, err
	}
	if !exists {
		return notFound(routed.Intent, "Meeting not found."), nil
	}

	rep, err := d.reports.Generate(ctx, meetingID)
	if errors.Is(err, report.ErrInsufficientData) {
		return missingEntity(routed.Intent,
			"There isn't enough transcript yet to generate a report.", "Insufficient transcript"), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, "Report generated successfully!", rep), nil
}

func (d *Dispatcher) getReport(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting's report would you like?", "Missing meetingId"), nil
	}

	rep, err := d.reports.GetByMeeting(ctx, meetingID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(routed.Intent, "No report found. Would you like me to generate one?"), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, "Here's the report:", rep), nil
}

func (d *Dispatcher) askQuestion(ctx context.Context, routed intent.RouterResult, userID string) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting are you asking about?", "Missing meetingId"), nil
	}

	q := routed.Entities[intent.EntityQuestion]
	if q == "" {
		q = routed.OriginalMessage
	}

	answer, err := d.questions.Ask(ctx, meetingID, userID, q)
	if errors.Is(err, question.ErrNoTranscript) {
		return notFound(routed.Intent, "No transcript found for that meeting."), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	msg := answer.Answer
	if msg == "" {
		msg = "Couldn't find an answer."
	}
	return success(routed.Intent, msg, answer), nil
}

func (d *Dispatcher) getSummary(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting should I summarize?", "Missing meetingId"), nil
	}

	transcript, err := d.meetings.FullTranscript(ctx, meetingID)
	if err != nil {
		return models.ActionResponse{}, err
	}
	if transcript == "" {
		return notFound(routed.Intent, "No transcript found."), nil
	}

	summary, err := d.client.Complete(ctx, "", llm.SummaryPrompt(transcript))
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, summary, nil), nil
}

func (d *Dispatcher) getActionItems(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting's action items?", "Missing meetingId"), nil
	}

	transcript, err := d.meetings.FullTranscript(ctx, meetingID)
	if err != nil {
		return models.ActionResponse{}, err
	}
	if transcript == "" {
		return notFound(routed.Intent, "No transcript found."), nil
	}

	response, err := d.client.Complete(ctx, "", llm.ActionItemsPrompt(transcript))
	if err != nil {
		return models.ActionResponse{}, err
	}

	items := llm.ParseJSONArray[models.ActionItem](response)
	msg := "No action items found."
	if len(items) > 0 {
		msg = "Action items:"
	}
	return success(routed.Intent, msg, items), nil
}

func (d *Dispatcher) getTranscripts(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting's transcript?", "Missing meetingId"), nil
	}

	formatted, err := d.transcripts.Formatted(ctx, meetingID)
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, "Here's the transcript:", map[string]string{"transcript": formatted}), nil
}

func (d *Dispatcher) searchTranscripts(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting should I search?", "Missing meetingId"), nil
	}
	query := routed.Entities[intent.EntitySearchQuery]
	if query == "" {
		return missingEntity(routed.Intent, "What should I search for?", "Missing query"), nil
	}

	matches, err := d.transcripts.Search(ctx, meetingID, query)
	if err != nil {
		return models.ActionResponse{}, err
	}

	msg := "No matches found."
	if len(matches) > 0 {
		msg = fmt.Sprintf("Found %d matches:", len(matches))
	}
	return success(routed.Intent, msg, matches), nil
}

func (d *Dispatcher) getMeetingInfo(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting?", "Missing meetingId"), nil
	}

	m, err := d.meetings.GetByID(ctx, meetingID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(routed.Intent, "Meeting not found."), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, "Meeting: "+m.Title, m), nil
}

func (d *Dispatcher) listMeetings(ctx context.Context, routed intent.RouterResult, userID string) (models.ActionResponse, error) {
	meetings, err := d.meetings.ListByUser(ctx, userID)
	if err != nil {
		return models.ActionResponse{}, err
	}

	msg := "No meetings yet."
	if len(meetings) > 0 {
		msg = fmt.Sprintf("You have %d meetings:", len(meetings))
	}
	return success(routed.Intent, msg, meetings), nil
}

func (d *Dispatcher) createMeeting(ctx context.Context, routed intent.RouterResult, userID string) (models.ActionResponse, error) {
	m, err := d.meetings.Create(ctx, meeting.CreateInput{
		Title:  routed.Entities[intent.EntityMeetingTitle],
		HostID: userID,
		UserID: userID,
	})
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, fmt.Sprintf("Meeting %q created!", m.Title), m), nil
}

func (d *Dispatcher) endMeeting(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting should I end?", "Missing meetingId"), nil
	}

	m, err := d.meetings.End(ctx, meetingID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(routed.Intent, "Meeting not found."), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, "Meeting ended.", m), nil
}

func (d *Dispatcher) addParticipant(ctx context.Context, routed intent.RouterResult) (models.ActionResponse, error) {
	meetingID := routed.Entities[intent.EntityMeetingID]
	if meetingID == "" {
		return missingEntity(routed.Intent, "Which meeting?", "Missing meetingId"), nil
	}
	name := routed.Entities[intent.EntityParticipantName]
	if name == "" {
		return missingEntity(routed.Intent, "What's the participant's name?", "Missing name"), nil
	}

	p, err := d.meetings.AddParticipant(ctx, meetingID, name, "")
	if errors.Is(err, store.ErrNotFound) {
		return notFound(routed.Intent, "Meeting not found."), nil
	}
	if err != nil {
		return models.ActionResponse{}, err
	}

	return success(routed.Intent, name+" added.", p), nil
}

func (d *Dispatcher) smallTalk(routed intent.RouterResult) (models.ActionResponse, error) {
	return success(routed.Intent,
		"Hello! I am your Meeting Assistant. Ask me to summarize a meeting or generate a report.",
		nil), nil
}

func (d *Dispatcher) unknown(routed intent.RouterResult) (models.ActionResponse, error) {
	return models.ActionResponse{
		Success: false,
		Intent:  string(routed.Intent),
		Message: "I can help you with:\n• Generate/view reports\n• Answer questions about meetings\n• Get summaries or action items\n• Search transcripts\n• Manage meetings",
		Error:   "Unknown intent",
	}, nil
}

func success(i intent.Intent, message string, data any) models.ActionResponse {
	return models.ActionResponse{
		Success: true,
		Intent:  string(i),
		Message: message,
		Data:    data,
	}
}

func missingEntity(i intent.Intent, message, errCode string) models.ActionResponse {
	return models.ActionResponse{
		Success: false,
		Intent:  string(i),
		Message: message,
		Error:   errCode,
	}
}

func notFound(i intent.Intent, message string) models.ActionResponse {
	return models.ActionResponse{
		Success: false,
		Intent:  string(i),
		Message: message,
		Error:   "Not found",
	}
}

func genericFailure(i intent.Intent, detail string) models.ActionResponse {
	return models.ActionResponse{
		Success: false,
		Intent:  string(i),
		Message: "Something went wrong.",
		Error:   detail,
	}
}
