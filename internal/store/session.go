package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one tracking session, from pipeline start to stop.
type Session struct {
	ID             string     `json:"id"`
	InitialMode    string     `json:"initialMode"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	Frames         int64      `json:"frames"`
	DetectedFrames int64      `json:"detectedFrames"`
}

// SessionRepository records session lifetimes and frame counts.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new open session. An empty ID gets a fresh UUID and a zero
// StartedAt gets the current time.
func (r *SessionRepository) Start(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, initial_mode, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.InitialMode, sess.StartedAt,
	)
	return err
}

// AddFrames adds to the session's frame counters.
func (r *SessionRepository) AddFrames(id string, frames, detected int64) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frames = frames + ?, detected_frames = detected_frames + ? WHERE id = ?`,
		frames, detected, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// End closes a session.
func (r *SessionRepository) End(id string, endedAt time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, endedAt, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, initial_mode, started_at, ended_at, frames, detected_frames
		 FROM sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns up to limit sessions, newest first.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, initial_mode, started_at, ended_at, frames, detected_frames
		 FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.InitialMode, &sess.StartedAt, &ended, &sess.Frames, &sess.DetectedFrames)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
