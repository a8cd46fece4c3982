package stream

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"meeting-ai-orchestrator/internal/models"
	"meeting-ai-orchestrator/internal/result"
)

// capturingPublisher records every envelope it receives
type capturingPublisher struct {
	mu        sync.Mutex
	envelopes []models.AudioEnvelope
	fail      bool
}

func (p *capturingPublisher) PublishAudio(_ context.Context, env models.AudioEnvelope) result.Result[struct{}] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return result.Fail[struct{}](errors.New("broker unavailable"))
	}
	p.envelopes = append(p.envelopes, env)
	return result.Ok(struct{}{})
}

func (p *capturingPublisher) all() []models.AudioEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.AudioEnvelope, len(p.envelopes))
	copy(out, p.envelopes)
	return out
}

func dial(t *testing.T, publisher AudioPublisher, registry *Registry, query string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(NewHandler(publisher, registry))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	return frame
}

func waitForEnvelopes(t *testing.T, publisher *capturingPublisher, n int) []models.AudioEnvelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if envs := publisher.all(); len(envs) >= n {
			return envs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d envelopes, got %d", n, len(publisher.all()))
	return nil
}

func TestHandler_ConnectedFrame(t *testing.T) {
	registry := NewRegistry()
	conn := dial(t, &capturingPublisher{}, registry, "meetingId=m-1&userId=u-1")

	frame := readFrame(t, conn)
	if frame.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", frame.Type)
	}
	if frame.ConnectionID == "" {
		t.Error("connected frame missing connectionId")
	}
	if frame.MeetingID != "m-1" {
		t.Errorf("expected meetingId m-1, got %q", frame.MeetingID)
	}
}

func TestHandler_MissingMeetingIDClosesWithPolicyViolation(t *testing.T) {
	conn := dial(t, &capturingPublisher{}, NewRegistry(), "userId=u-1")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected close")
	}
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
		t.Errorf("expected policy violation close, got %v", err)
	}
}

func TestHandler_BinaryFrameEnqueuedOnce(t *testing.T) {
	publisher := &capturingPublisher{}
	conn := dial(t, publisher, NewRegistry(), "meetingId=m-1&userId=u-7")
	readFrame(t, conn)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	envs := waitForEnvelopes(t, publisher, 1)
	if len(envs) != 1 {
		t.Fatalf("expected exactly one envelope, got %d", len(envs))
	}

	env := envs[0]
	if env.MeetingID != "m-1" {
		t.Errorf("expected meetingId m-1, got %q", env.MeetingID)
	}
	if env.Metadata.UserID != "u-7" {
		t.Errorf("expected userId u-7, got %q", env.Metadata.UserID)
	}
	decoded, err := base64.StdEncoding.DecodeString(env.Audio)
	if err != nil {
		t.Fatalf("audio not base64: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Errorf("payload mismatch: %v", decoded)
	}
}

func TestHandler_ChunkOrderPreserved(t *testing.T) {
	publisher := &capturingPublisher{}
	conn := dial(t, publisher, NewRegistry(), "meetingId=m-1")
	readFrame(t, conn)

	for _, size := range []int{100, 200, 150} {
		if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, size)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	envs := waitForEnvelopes(t, publisher, 3)
	for i, want := range []int{100, 200, 150} {
		decoded, _ := base64.StdEncoding.DecodeString(envs[i].Audio)
		if len(decoded) != want {
			t.Errorf("chunk %d: expected %d bytes, got %d", i, want, len(decoded))
		}
	}
}

func TestHandler_PingPong(t *testing.T) {
	conn := dial(t, &capturingPublisher{}, NewRegistry(), "meetingId=m-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "pong" {
		t.Errorf("expected pong, got %q", frame.Type)
	}
	if frame.Timestamp == 0 {
		t.Error("pong missing timestamp")
	}
}

func TestHandler_StopAcknowledgedWithoutClosing(t *testing.T) {
	registry := NewRegistry()
	conn := dial(t, &capturingPublisher{}, registry, "meetingId=m-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "stopped" {
		t.Errorf("expected stopped, got %q", frame.Type)
	}
	if frame.MeetingID != "m-1" {
		t.Errorf("stopped frame should carry the meetingId, got %q", frame.MeetingID)
	}

	// Stop only acknowledges; the connection keeps serving
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write after stop failed: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Type != "pong" {
		t.Errorf("expected pong after stop, got %q", frame.Type)
	}

	if registry.Len() != 1 {
		t.Errorf("session should stay registered after stop, got %d", registry.Len())
	}
}

func TestHandler_UnknownControlTypeGetsErrorFrame(t *testing.T) {
	conn := dial(t, &capturingPublisher{}, NewRegistry(), "meetingId=m-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Errorf("expected error frame, got %q", frame.Type)
	}
}

func TestHandler_NonControlTextTreatedAsAudio(t *testing.T) {
	publisher := &capturingPublisher{}
	conn := dial(t, publisher, NewRegistry(), "meetingId=m-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json at all")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	envs := waitForEnvelopes(t, publisher, 1)
	decoded, _ := base64.StdEncoding.DecodeString(envs[0].Audio)
	if string(decoded) != "not json at all" {
		t.Errorf("unexpected payload: %q", decoded)
	}
}

func TestHandler_PublishFailureKeepsConnectionOpen(t *testing.T) {
	publisher := &capturingPublisher{fail: true}
	conn := dial(t, publisher, NewRegistry(), "meetingId=m-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %q", frame.Type)
	}

	// Connection survives: a ping still gets a pong
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write after error failed: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Type != "pong" {
		t.Errorf("expected pong after error, got %q", frame.Type)
	}
}

func TestParseControl(t *testing.T) {
	cases := []struct {
		in       string
		wantOK   bool
		wantType string
	}{
		{`{"type":"ping"}`, true, "ping"},
		{`{"type":"stop","extra":1}`, true, "stop"},
		{`{"kind":"ping"}`, false, ""},
		{`{"type":42}`, false, ""},
		{`not json`, false, ""},
		{`[1,2]`, false, ""},
	}

	for _, c := range cases {
		ctrl, ok := parseControl([]byte(c.in))
		if ok != c.wantOK || ctrl.Type != c.wantType {
			t.Errorf("parseControl(%q) = %+v, %v", c.in, ctrl, ok)
		}
	}
}
