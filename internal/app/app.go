// Package app wires configuration, storage, the broker and the services into
// a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/agent"
	"meeting-ai-orchestrator/internal/broker"
	"meeting-ai-orchestrator/internal/config"
	"meeting-ai-orchestrator/internal/httpapi"
	"meeting-ai-orchestrator/internal/intent"
	"meeting-ai-orchestrator/internal/llm"
	"meeting-ai-orchestrator/internal/observability"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/service/meeting"
	"meeting-ai-orchestrator/internal/service/question"
	"meeting-ai-orchestrator/internal/service/report"
	"meeting-ai-orchestrator/internal/service/transcript"
	"meeting-ai-orchestrator/internal/store"
	"meeting-ai-orchestrator/internal/store/memory"
	"meeting-ai-orchestrator/internal/store/postgres"
	"meeting-ai-orchestrator/internal/stream"
	"meeting-ai-orchestrator/internal/subscriber"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Cfg         *config.Configuration

	Handler    http.Handler
	Broker     *broker.Broker
	Subscriber *subscriber.Subscriber
	Obs        *observability.Server

	log zerolog.Logger
}

// New constructs the application from the provided configuration. An empty
// DATABASE_URL selects the in-memory store.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	log := logging.WithComponent("application")

	var st *store.Store
	var err error
	if cfg.Database.URL != "" {
		st, err = postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using postgres store")
	} else {
		st = memory.New()
		log.Info().Msg("Using in-memory store")
	}

	brok := broker.New(&broker.Config{
		Enabled:    cfg.Kafka.Enabled,
		Brokers:    cfg.Kafka.Brokers,
		AudioTopic: cfg.Kafka.AudioTopic,
		TextTopic:  cfg.Kafka.TextTopic,
		GroupID:    cfg.Kafka.GroupID,
	})

	client := llm.NewHTTPClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
	})

	meetingSvc := meeting.NewService(st.Meetings, st.Transcripts)
	transcriptSvc := transcript.NewService(st.Transcripts)
	reportSvc := report.NewService(st.Reports, meetingSvc, client)
	questionSvc := question.NewService(st.Questions, meetingSvc, client)

	dispatcher := agent.NewDispatcher(
		intent.NewRouter(client),
		meetingSvc,
		transcriptSvc,
		reportSvc,
		questionSvc,
		client,
	)

	registry := stream.NewRegistry()
	streamHandler := stream.NewHandler(brok, registry)

	a := &Application{
		Cfg:     cfg,
		Broker:  brok,
		Handler: httpapi.NewRouter(dispatcher, streamHandler, registry, meetingSvc, transcriptSvc, questionSvc, reportSvc),
		log:     log,
	}

	if brok.Enabled() {
		reader, err := brok.TextReader()
		if err != nil {
			return nil, err
		}
		a.Subscriber = subscriber.New(reader, transcriptSvc)
	} else {
		log.Warn().Msg("Broker disabled, transcript subscriber not started")
	}

	a.Obs = observability.NewServer(":"+cfg.Observability.MetricsPort, a.ready)

	log.Info().Str("principal", cfg.Service.Principal).Msg("Application created")
	return a, nil
}

// ready reports whether the service can do useful work. With the broker
// enabled, that means the transcript subscriber loop is running.
func (a *Application) ready() bool {
	if a.Subscriber == nil {
		return true
	}
	return a.Subscriber.Running()
}

// Start launches the background components.
func (a *Application) Start(ctx context.Context) {
	a.StartupTime = time.Now().UTC()
	a.Obs.Start()
	if a.Subscriber != nil {
		a.Subscriber.Start(ctx)
	}
	a.log.Info().Time("startupTime", a.StartupTime).Msg("Application started")
}

// Shutdown stops background components and releases resources.
func (a *Application) Shutdown(ctx context.Context) {
	if a.Subscriber != nil {
		a.Subscriber.Stop()
	}
	if err := a.Broker.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Broker close failed")
	}
	if err := a.Obs.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("Observability server shutdown failed")
	}
	a.log.Info().Msg("Application shut down")
}
