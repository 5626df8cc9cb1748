package store

import (
	"database/sql"
	"time"
)

// Event records a change of the reported action.
type Event struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	Frame      int64     `json:"frame"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventRepository provides access to action events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event and sets its ID.
func (r *EventRepository) Create(e *Event) error {
	e.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO action_events (session_id, action, confidence, frame, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Action, e.Confidence, e.Frame, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListBySession retrieves the events of a session in frame order.
func (r *EventRepository) ListBySession(sessionID string) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, action, confidence, frame, created_at
		 FROM action_events
		 WHERE session_id = ?
		 ORDER BY frame, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Action, &e.Confidence, &e.Frame, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByAction returns how many times each action was entered in a session.
func (r *EventRepository) CountByAction(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT action, COUNT(*) FROM action_events WHERE session_id = ? GROUP BY action`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		counts[action] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
