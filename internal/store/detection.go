package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Detection represents one journaled detection.
type Detection struct {
	ID              string
	SessionID       string
	Frame           int
	X               int
	Y               int
	Width           int
	Height          int
	CenterX         int
	CenterY         int
	Area            float64
	MeanColor       string
	AnnotationColor string
	CreatedAt       time.Time
}

// DetectionRepository provides operations on journaled detections.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// Create inserts a detection. ID and CreatedAt are assigned when empty.
func (r *DetectionRepository) Create(d *Detection) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO detections (id, session_id, frame, x, y, width, height, center_x, center_y,
		 area, mean_color, annotation_color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Frame, d.X, d.Y, d.Width, d.Height, d.CenterX, d.CenterY,
		d.Area, d.MeanColor, d.AnnotationColor, d.CreatedAt,
	)
	return err
}

const detectionColumns = `id, session_id, frame, x, y, width, height, center_x, center_y,
	area, mean_color, annotation_color, created_at`

// GetByID retrieves a detection by its ID.
func (r *DetectionRepository) GetByID(id string) (*Detection, error) {
	row := r.db.QueryRow(`SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id)

	d, err := scanDetection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListBySession retrieves the detections of a session in frame order.
// A limit of 0 or less returns all of them.
func (r *DetectionRepository) ListBySession(sessionID string, limit int) ([]*Detection, error) {
	if limit <= 0 {
		limit = -1
	}

	return r.query(
		`SELECT `+detectionColumns+` FROM detections
		 WHERE session_id = ? ORDER BY frame LIMIT ?`,
		sessionID, limit,
	)
}

// Recent retrieves the latest detections across all sessions, newest first.
func (r *DetectionRepository) Recent(limit int) ([]*Detection, error) {
	if limit <= 0 {
		limit = -1
	}

	return r.query(
		`SELECT `+detectionColumns+` FROM detections
		 ORDER BY created_at DESC, frame DESC LIMIT ?`,
		limit,
	)
}

// CountBySession returns how many detections a session recorded.
func (r *DetectionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM detections WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func (r *DetectionRepository) query(q string, args ...any) ([]*Detection, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return detections, nil
}

func scanDetection(row rowScanner) (*Detection, error) {
	d := &Detection{}
	err := row.Scan(&d.ID, &d.SessionID, &d.Frame, &d.X, &d.Y, &d.Width, &d.Height, &d.CenterX, &d.CenterY,
		&d.Area, &d.MeanColor, &d.AnnotationColor, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}
