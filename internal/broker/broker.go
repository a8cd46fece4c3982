// Package broker provides the queue channel abstraction on top of Kafka:
// an outbound audio-input queue and an inbound text-output topic consumed
// by a single logical subscriber group.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/metrics"
	"meeting-ai-orchestrator/internal/result"
)

// Config holds broker configuration.
type Config struct {
	Enabled    bool
	Brokers    []string
	AudioTopic string
	TextTopic  string
	GroupID    string
}

// Broker owns the shared connection configuration for both logical channels.
type Broker struct {
	audioWriter *kafka.Writer
	cfg         Config
	enabled     bool
	metrics     *metrics.Metrics
}

// New creates a broker. With Enabled=false or no brokers it runs in log-only
// mode: publishes are logged and reported successful, and no consumer can be
// opened.
func New(cfg *Config) *Broker {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Broker disabled (nil config), using log-only mode")
		return &Broker{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Broker disabled, using log-only mode")
		return &Broker{cfg: *cfg, enabled: false, metrics: m}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	audioWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AudioTopic,
		Balancer:     &kafka.Hash{}, // key by meetingId, order preserved per meeting
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("audioTopic", cfg.AudioTopic).
		Str("textTopic", cfg.TextTopic).
		Str("groupId", cfg.GroupID).
		Msg("Broker initialized")

	return &Broker{
		audioWriter: audioWriter,
		cfg:         *cfg,
		enabled:     true,
		metrics:     m,
	}
}

// PublishAudio pushes one audio envelope onto the audio-input queue. It never
// panics and never returns a raw error; failures come back in the envelope so
// the caller can report them without tearing down its connection.
func (b *Broker) PublishAudio(ctx context.Context, env models.AudioEnvelope) result.Result[struct{}] {
	start := time.Now()

	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("meetingId", env.MeetingID).Msg("Failed to marshal audio envelope")
		return result.Fail[struct{}](err)
	}

	log.Debug().
		Str("meetingId", env.MeetingID).
		Int("payloadBytes", len(payload)).
		Msg("Publishing audio envelope")

	if !b.enabled || b.audioWriter == nil {
		b.metrics.RecordQueuePublish(b.cfg.AudioTopic, nil, time.Since(start).Seconds())
		return result.Ok(struct{}{})
	}

	msg := kafka.Message{
		Key:   []byte(env.MeetingID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "userId", Value: []byte(env.Metadata.UserID)},
		},
	}

	if err := b.audioWriter.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", b.cfg.AudioTopic).
			Str("meetingId", env.MeetingID).
			Msg("Failed to publish audio envelope")
		b.metrics.RecordQueuePublish(b.cfg.AudioTopic, err, time.Since(start).Seconds())
		return result.Fail[struct{}](err)
	}

	b.metrics.RecordQueuePublish(b.cfg.AudioTopic, nil, time.Since(start).Seconds())
	return result.Ok(struct{}{})
}

// TextReader opens the single logical consumer of the text-output topic.
// Failure here is fatal to the subscriber subsystem, so the error is returned
// rather than swallowed.
func (b *Broker) TextReader() (*kafka.Reader, error) {
	if !b.enabled {
		return nil, errors.New("broker disabled: no text-output consumer available")
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.cfg.Brokers,
		Topic:    b.cfg.TextTopic,
		GroupID:  b.cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024,
	}), nil
}

// Enabled reports whether the broker has a live connection.
func (b *Broker) Enabled() bool {
	return b.enabled
}

// Close closes the outbound writer.
func (b *Broker) Close() error {
	if b.audioWriter == nil {
		return nil
	}
	if err := b.audioWriter.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing audio writer")
		return err
	}
	return nil
}
