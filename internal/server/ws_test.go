package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/body"
)

func dialActions(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/actions"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *ActionsHandler, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewActionMessage(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	t.Run("with pose", func(t *testing.T) {
		pose := body.GuardPose()
		msg := NewActionMessage(action.Result{Action: action.Guard, Confidence: 0.6}, &pose, at)

		if len(msg.Landmarks) != body.NumLandmarks {
			t.Errorf("expected %d landmarks, got %d", body.NumLandmarks, len(msg.Landmarks))
		}
		if msg.Timestamp != 1700000000123 {
			t.Errorf("timestamp = %d, want 1700000000123", msg.Timestamp)
		}
	})

	t.Run("without pose encodes an empty array", func(t *testing.T) {
		msg := NewActionMessage(action.Result{Action: action.Idle}, nil, at)

		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if !strings.Contains(string(data), `"landmarks":[]`) {
			t.Errorf("expected empty landmarks array, got %s", data)
		}
	})
}

func TestActionsHandler_Broadcast(t *testing.T) {
	hub := NewActionsHandler()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Actions: hub}))
	defer ts.Close()

	a := dialActions(t, ts)
	b := dialActions(t, ts)
	waitForClients(t, hub, 2)

	pose := body.JabPose()
	hub.Publish(NewActionMessage(action.Result{Action: action.Jab, Confidence: 1}, &pose, time.Now()))

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %s read error: %v", name, err)
		}

		var got struct {
			Action     string                   `json:"action"`
			Confidence float64                  `json:"confidence"`
			Landmarks  []map[string]interface{} `json:"landmarks"`
			Timestamp  int64                    `json:"timestamp"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("client %s decode error: %v", name, err)
		}
		if got.Action != "JAB" || got.Confidence != 1 {
			t.Errorf("client %s got %s %.2f, want JAB 1.00", name, got.Action, got.Confidence)
		}
		if len(got.Landmarks) != body.NumLandmarks {
			t.Errorf("client %s got %d landmarks", name, len(got.Landmarks))
		}
		for _, key := range []string{"x", "y", "z", "visibility"} {
			if _, ok := got.Landmarks[0][key]; !ok {
				t.Errorf("landmark missing %q", key)
			}
		}
	}
}

func TestActionsHandler_Disconnect(t *testing.T) {
	hub := NewActionsHandler()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Actions: hub}))
	defer ts.Close()

	conn := dialActions(t, ts)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestActionsHandler_Close(t *testing.T) {
	hub := NewActionsHandler()
	ts := httptest.NewServer(New(Config{Actions: hub}))
	defer ts.Close()

	conn := dialActions(t, ts)
	waitForClients(t, hub, 1)

	hub.Close()
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}

	// Publishing after Close is a no-op.
	hub.Publish(ActionMessage{Action: action.Idle})
}
