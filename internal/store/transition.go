package store

import (
	"database/sql"
	"time"
)

// Sources of a mode transition.
const (
	SourceGesture = "gesture"
	SourceManual  = "manual"
)

// Transition is one persisted mode change.
type Transition struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

// TransitionRepository stores the mode change history.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Record inserts a transition and sets its ID.
func (r *TransitionRepository) Record(t *Transition) error {
	result, err := r.db.Exec(
		`INSERT INTO mode_transitions (session_id, from_mode, to_mode, source, at) VALUES (?, ?, ?, ?, ?)`,
		t.SessionID, t.From, t.To, t.Source, t.At,
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// List returns up to limit transitions across all sessions, newest first.
func (r *TransitionRepository) List(limit int) ([]*Transition, error) {
	return r.query(
		`SELECT id, session_id, from_mode, to_mode, source, at
		 FROM mode_transitions ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// ListBySession returns a session's transitions in the order they happened.
func (r *TransitionRepository) ListBySession(sessionID string) ([]*Transition, error) {
	return r.query(
		`SELECT id, session_id, from_mode, to_mode, source, at
		 FROM mode_transitions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
}

func (r *TransitionRepository) query(q string, args ...any) ([]*Transition, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.From, &t.To, &t.Source, &t.At); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}
