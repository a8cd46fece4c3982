package intent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/observability/metrics"
)

// Router classifies chat messages via the language-model service.
type Router struct {
	client  llm.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewRouter creates a router backed by the given completion client.
func NewRouter(client llm.Client) *Router {
	return &Router{
		client:  client,
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent("router"),
	}
}

// Route classifies message. meetingID carries ambient context (the currently
// active meeting, if any) and fills in the meetingId entity when the
// classifier does not extract one. Route never returns an error: any failure
// yields a zero-confidence Unknown result carrying the original message.
func (r *Router) Route(ctx context.Context, message, meetingID string) RouterResult {
	res := r.route(ctx, message, meetingID)
	r.metrics.RecordIntent(string(res.Intent))
	return res
}

func (r *Router) route(ctx context.Context, message, meetingID string) RouterResult {
	userPrompt := fmt.Sprintf("User: %s", message)
	if meetingID != "" {
		userPrompt = fmt.Sprintf("Current meeting: %s\nUser: %s", meetingID, message)
	}

	response, err := r.client.Complete(ctx, llm.RouterSystemPrompt, userPrompt)
	if err != nil {
		r.log.Error().Err(err).Msg("Classifier call failed")
		return unknownResult(message)
	}

	payload, err := decodeRouterPayload(response)
	if err != nil {
		r.log.Warn().Err(err).Msg("Classifier response was not parsable")
		return unknownResult(message)
	}

	// The model is not trusted to stay inside the enumeration.
	resolved := Intent(payload.Intent)
	if !resolved.Valid() {
		r.log.Warn().
			Str("rawIntent", payload.Intent).
			Msg("Classifier returned invalid intent, defaulting to unknown")
		resolved = Unknown
	}

	entities := stringEntities(payload.Entities)
	if entities[EntityMeetingID] == "" && meetingID != "" {
		entities[EntityMeetingID] = meetingID
	}

	confidence := payload.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = 0
	}

	return RouterResult{
		Intent:          resolved,
		Confidence:      confidence,
		Entities:        entities,
		OriginalMessage: message,
	}
}

func unknownResult(message string) RouterResult {
	return RouterResult{
		Intent:          Unknown,
		Confidence:      0,
		Entities:        map[string]string{},
		OriginalMessage: message,
	}
}
