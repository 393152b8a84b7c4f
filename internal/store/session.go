package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session represents one capture run stored in the database.
type Session struct {
	ID         string
	Device     int
	Config     string
	Frames     int
	Detections int
	StartedAt  time.Time
	// EndedAt is zero while the session is still running.
	EndedAt time.Time
}

// Running reports whether the session has not been finished.
func (s *Session) Running() bool {
	return s.EndedAt.IsZero()
}

// SessionRepository provides operations on capture sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new running session for the given device.
// configJSON is the annotator configuration in effect, stored verbatim.
func (r *SessionRepository) Start(device int, configJSON string) (*Session, error) {
	if configJSON == "" {
		configJSON = "{}"
	}

	sess := &Session{
		ID:        uuid.New().String(),
		Device:    device,
		Config:    configJSON,
		StartedAt: time.Now(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, device, config, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Device, sess.Config, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Finish records the final counters of a session and marks it ended.
func (r *SessionRepository) Finish(id string, frames, detections int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frames = ?, detections = ?, ended_at = ? WHERE id = ?`,
		frames, detections, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, device, config, frames, detections, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}

// List retrieves sessions, newest first. A limit of 0 or less returns all sessions.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, device, config, frames, detections, started_at, ended_at
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

// Delete removes a session and its detections.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Device, &sess.Config, &sess.Frames, &sess.Detections, &sess.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		sess.EndedAt = ended.Time
	}
	return sess, nil
}
