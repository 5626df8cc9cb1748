package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/letsfight/internal/store"
)

func TestAPI_SessionWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Record a session the way the capture loop does.
	sess := &store.Session{}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i, a := range []string{"IDLE", "GUARD", "JAB", "IDLE"} {
		if err := s.Events().Create(&store.Event{SessionID: sess.ID, Action: a, Confidence: 0.9, Frame: int64(i * 10)}); err != nil {
			t.Fatalf("Events().Create() error = %v", err)
		}
	}
	s.Sessions().IncrementFrames(sess.ID, 40)
	s.Sessions().End(sess.ID)

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List sessions
	resp, err := client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	var listed struct {
		Sessions []struct {
			ID     string `json:"id"`
			Frames int64  `json:"frames"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != sess.ID {
		t.Fatalf("sessions = %+v, want [%s]", listed.Sessions, sess.ID)
	}
	if listed.Sessions[0].Frames != 40 {
		t.Errorf("frames = %d, want 40", listed.Sessions[0].Frames)
	}

	// 2. Session detail with counts
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID)
	var detail struct {
		Counts map[string]int `json:"counts"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()

	if detail.Counts["IDLE"] != 2 || detail.Counts["JAB"] != 1 {
		t.Errorf("counts = %v", detail.Counts)
	}

	// 3. Event timeline
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID + "/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET events status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var events struct {
		Events []struct {
			Action string `json:"action"`
			Frame  int64  `json:"frame"`
		} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&events)
	resp.Body.Close()

	if len(events.Events) != 4 || events.Events[2].Action != "JAB" || events.Events[2].Frame != 20 {
		t.Errorf("events = %+v", events.Events)
	}

	// 4. Delete and verify
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sess.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	hub := NewActionsHandler()
	defer hub.Close()

	srv := New(Config{Actions: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status  string `json:"status"`
		Uptime  string `json:"uptime"`
		Clients *int   `json:"clients"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
	if health.Clients == nil || *health.Clients != 0 {
		t.Errorf("clients = %v, want 0", health.Clients)
	}
}
