// Package stream is the live audio ingress. Clients connect over WebSocket,
// push raw audio frames and receive small JSON control frames back.
package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/observability/logging"
	"meeting-ai-orchestrator/internal/observability/metrics"
	"meeting-ai-orchestrator/internal/result"
)

// AudioPublisher hands an audio envelope to the outbound queue.
type AudioPublisher interface {
	PublishAudio(ctx context.Context, env models.AudioEnvelope) result.Result[struct{}]
}

// serverFrame is the shape of every frame the server sends.
type serverFrame struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId,omitempty"`
	MeetingID    string `json:"meetingId,omitempty"`
	Message      string `json:"message,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// clientControl is a JSON text frame sent by the client. Anything that does
// not parse into this shape is treated as audio payload.
type clientControl struct {
	Type string `json:"type"`
}

// Handler upgrades HTTP requests and runs the per-connection read loop.
type Handler struct {
	publisher AudioPublisher
	registry  *Registry
	upgrader  websocket.Upgrader
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewHandler(publisher AudioPublisher, registry *Registry) *Handler {
	return &Handler{
		publisher: publisher,
		registry:  registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent("stream"),
	}
}

// ServeHTTP handles GET /v1/stream?meetingId=...&userId=...
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	meetingID := r.URL.Query().Get("meetingId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "anonymous"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.ConnectionsFailed.Inc()
		h.log.Warn().Err(err).Msg("Upgrade failed")
		return
	}

	if meetingID == "" {
		h.metrics.ConnectionsFailed.Inc()
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "meetingId is required")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	connID := uuid.New().String()
	h.serve(r.Context(), conn, connID, meetingID, userID)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, connID, meetingID, userID string) {
	start := time.Now()
	log := logging.WithConnection(connID, meetingID, userID)

	h.registry.Add(connID, Session{MeetingID: meetingID, UserID: userID, ConnectedAt: start})
	h.metrics.RecordConnectionStart()
	log.Info().Msg("Audio stream connected")

	defer func() {
		h.registry.Remove(connID)
		_ = conn.Close()
		duration := time.Since(start)
		h.metrics.RecordConnectionEnd(duration)
		log.Info().Dur("duration", duration).Msg("Audio stream closed")
	}()

	h.send(conn, serverFrame{
		Type:         "connected",
		ConnectionID: connID,
		MeetingID:    meetingID,
		Message:      "Connected to audio stream",
		Timestamp:    time.Now().UnixMilli(),
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("Stream read error")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.handleAudio(ctx, conn, log, meetingID, userID, data)
		case websocket.TextMessage:
			h.handleText(ctx, conn, log, meetingID, userID, data)
		}
	}
}

// handleText interprets a text frame as a control message when it carries a
// recognized type; anything else is forwarded as audio payload. Stop is an
// acknowledgement only, the client decides when to disconnect.
func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, meetingID, userID string, data []byte) {
	ctrl, ok := parseControl(data)
	if !ok {
		h.handleAudio(ctx, conn, log, meetingID, userID, data)
		return
	}

	switch ctrl.Type {
	case "ping":
		h.send(conn, serverFrame{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "stop":
		h.send(conn, serverFrame{Type: "stopped", MeetingID: meetingID, Timestamp: time.Now().UnixMilli()})
	default:
		h.send(conn, serverFrame{Type: "error", Message: "Unknown message type: " + ctrl.Type})
	}
}

// handleAudio wraps one frame into an envelope and enqueues it. Publish
// failures are reported back on the socket but never close it.
func (h *Handler) handleAudio(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, meetingID, userID string, data []byte) {
	now := time.Now().UnixMilli()
	h.metrics.RecordAudioFrame(len(data))

	env := models.AudioEnvelope{
		MeetingID: meetingID,
		Timestamp: now,
		Audio:     base64.StdEncoding.EncodeToString(data),
		Metadata: models.AudioMetadata{
			UserID:    userID,
			Timestamp: now,
		},
	}

	if res := h.publisher.PublishAudio(ctx, env); !res.Success {
		log.Error().Str("error", res.Error).Msg("Audio enqueue failed")
		h.send(conn, serverFrame{Type: "error", Message: "Failed to process audio"})
	}
}

func (h *Handler) send(conn *websocket.Conn, frame serverFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Warn().Err(err).Msg("Write failed")
	}
}

// parseControl reports whether data is a JSON object carrying a string type
// field.
func parseControl(data []byte) (clientControl, bool) {
	var peek map[string]json.RawMessage
	if err := json.Unmarshal(data, &peek); err != nil {
		return clientControl{}, false
	}
	raw, ok := peek["type"]
	if !ok {
		return clientControl{}, false
	}
	var typ string
	if err := json.Unmarshal(raw, &typ); err != nil {
		return clientControl{}, false
	}
	return clientControl{Type: typ}, true
}
