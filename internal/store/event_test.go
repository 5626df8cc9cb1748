package store

import (
	"errors"
	"testing"
)

func createSession(t *testing.T, s *Store) *Session {
	t.Helper()
	sess := &Session{}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func TestEventRepository_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s)
	repo := s.Events()

	events := []*Event{
		{SessionID: sess.ID, Action: "IDLE", Confidence: 0.9, Frame: 2},
		{SessionID: sess.ID, Action: "GUARD", Confidence: 0.6, Frame: 11},
		{SessionID: sess.ID, Action: "JAB", Confidence: 1.0, Frame: 20},
		{SessionID: sess.ID, Action: "IDLE", Confidence: 0.5, Frame: 22},
	}
	// Insert out of frame order; listing sorts by frame.
	for _, i := range []int{2, 0, 3, 1} {
		if err := repo.Create(events[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if events[i].ID == 0 {
			t.Error("Create() should set the event ID")
		}
	}

	got, err := repo.ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	for i, e := range events {
		if got[i].Action != e.Action || got[i].Frame != e.Frame || got[i].Confidence != e.Confidence {
			t.Errorf("event %d = %+v, want %+v", i, got[i], *e)
		}
	}
}

func TestEventRepository_ListBySession_Isolated(t *testing.T) {
	s := newTestStore(t)
	a := createSession(t, s)
	b := createSession(t, s)

	if err := s.Events().Create(&Event{SessionID: a.ID, Action: "JAB", Confidence: 1, Frame: 1}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Events().ListBySession(b.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no events for session b, got %d", len(got))
	}
}

func TestEventRepository_CountByAction(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s)

	for i, action := range []string{"JAB", "IDLE", "JAB", "GUARD", "IDLE", "JAB"} {
		e := &Event{SessionID: sess.ID, Action: action, Confidence: 1, Frame: int64(i)}
		if err := s.Events().Create(e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	counts, err := s.Events().CountByAction(sess.ID)
	if err != nil {
		t.Fatalf("CountByAction() error = %v", err)
	}

	want := map[string]int{"JAB": 3, "IDLE": 2, "GUARD": 1}
	for action, n := range want {
		if counts[action] != n {
			t.Errorf("count[%s] = %d, want %d", action, counts[action], n)
		}
	}
}

func TestEventRepository_Constraints(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s)

	t.Run("unknown action", func(t *testing.T) {
		err := s.Events().Create(&Event{SessionID: sess.ID, Action: "HOOK", Frame: 1})
		if err == nil {
			t.Error("expected an unknown action to be rejected")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		err := s.Events().Create(&Event{SessionID: "missing", Action: "JAB", Frame: 1})
		if err == nil {
			t.Error("expected a foreign key violation")
		}
	})
}

func TestEventRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s)

	if err := s.Events().Create(&Event{SessionID: sess.ID, Action: "GUARD", Confidence: 0.6, Frame: 5}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected events to be deleted with the session, got %d", len(got))
	}
	if _, err := s.Sessions().GetByID(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
