// Package subscriber consumes transcribed text from the inbound topic and
// persists it.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/observability/metrics"
	"meeting-ai-orchestrator/internal/schema"
)

// MessageSource yields raw messages from the text-output topic. Satisfied by
// *kafka.Reader.
type MessageSource interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// TranscriptSink persists validated fragments.
type TranscriptSink interface {
	Create(ctx context.Context, f models.TranscriptFragment) (*models.TranscriptFragment, error)
}

// inboundEvent is the wire shape produced by the external transcriber.
type inboundEvent struct {
	MeetingID   string  `json:"meetingId"`
	Text        string  `json:"text"`
	SpeakerName string  `json:"speakerName"`
	Timestamp   int64   `json:"timestamp"`
	Confidence  float64 `json:"confidence"`
}

// Subscriber is the single consumer of the text-output topic. Fragments are
// processed sequentially so per-meeting arrival order is preserved.
type Subscriber struct {
	source    MessageSource
	sink      TranscriptSink
	validator *schema.Validator
	metrics   *metrics.Metrics
	log       zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a stopped subscriber.
func New(source MessageSource, sink TranscriptSink) *Subscriber {
	return &Subscriber{
		source:    source,
		sink:      sink,
		validator: schema.New(),
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("subscriber"),
	}
}

// Start launches the consume loop. Calling Start on a running subscriber is a
// no-op.
func (s *Subscriber) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(runCtx)
	s.log.Info().Msg("Transcript subscriber started")
}

// Stop cancels the loop and waits for it to drain. Safe to call repeatedly.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	if err := s.source.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Source close failed")
	}
	s.log.Info().Msg("Transcript subscriber stopped")
}

// Running reports whether the consume loop is active.
func (s *Subscriber) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.done)

	for {
		msg, err := s.source.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			s.log.Error().Err(err).Msg("Read failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		s.process(ctx, msg.Value)
	}
}

// process parses, validates and persists one message. A bad message is
// dropped with a warning; it never stops the loop.
func (s *Subscriber) process(ctx context.Context, raw []byte) {
	var event inboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		s.log.Warn().Err(err).Msg("Dropping malformed transcript event")
		s.metrics.TranscriptsDropped.WithLabelValues("malformed").Inc()
		return
	}

	fragment := models.TranscriptFragment{
		MeetingID:   event.MeetingID,
		Text:        event.Text,
		SpeakerName: event.SpeakerName,
		Confidence:  event.Confidence,
	}
	if event.Timestamp > 0 {
		fragment.Timestamp = time.UnixMilli(event.Timestamp)
	}

	if err := s.validator.ValidateFragment(fragment); err != nil {
		s.log.Warn().Err(err).Msg("Dropping invalid transcript event")
		s.metrics.TranscriptsDropped.WithLabelValues("invalid").Inc()
		return
	}

	saved, err := s.sink.Create(ctx, fragment)
	if err != nil {
		s.log.Error().Err(err).Str("meeting_id", fragment.MeetingID).Msg("Persist failed")
		s.metrics.TranscriptsDropped.WithLabelValues("store_error").Inc()
		return
	}

	s.metrics.TranscriptsPersisted.Inc()
	s.log.Debug().
		Str("meeting_id", saved.MeetingID).
		Int("chars", len(saved.Text)).
		Msg("Transcript persisted")
}
