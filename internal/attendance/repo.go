package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Status is the presence outcome for a registration.
type Status string

// NotMarked is the initial state; marks only move records to Present or
// Absent. There is no transition back to NotMarked.
const (
	StatusNotMarked Status = "NotMarked"
	StatusPresent   Status = "Present"
	StatusAbsent    Status = "Absent"
)

// Valid reports whether s is a markable status.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Attendance is the presence record for one registration.
type Attendance struct {
	ID             string     `json:"attendance_id"`
	RegistrationID string     `json:"registration_id"`
	Status         Status     `json:"status"`
	MarkedAt       *time.Time `json:"marked_at"`
	MarkedBy       *string    `json:"marked_by"`
}

// RegistrationRef locates a registration's event and assigned coordinator for
// authorization checks.
type RegistrationRef struct {
	EventID       string
	CoordinatorID *string
}

// Counts are the raw aggregates for an event.
type Counts struct {
	Total   int64
	Present int64
	Absent  int64
}

// Row is one participant's status in an event attendance listing.
type Row struct {
	RegistrationID string `json:"registration_id"`
	ParticipantID  string `json:"participant_id"`
	Name           string `json:"name"`
	College        string `json:"college"`
	Status         Status `json:"status"`
}

// EventReport is one event's aggregate line in the admin report.
type EventReport struct {
	EventID              string    `json:"event_id"`
	Title                string    `json:"title"`
	MainEvent            *string   `json:"main_event"`
	Date                 time.Time `json:"date"`
	TotalRegistered      int64     `json:"total_registered"`
	Present              int64     `json:"present"`
	Absent               int64     `json:"absent"`
	NotMarked            int64     `json:"not_marked"`
	AttendancePercentage float64   `json:"attendance_percentage"`
}

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RegistrationEvent resolves a registration to its event and coordinator, or
// nil when the registration does not exist.
func (r *Repository) RegistrationEvent(ctx context.Context, registrationID string) (*RegistrationRef, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT e.id, e.coordinator_id
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.id = $1
	`, registrationID)
	var ref RegistrationRef
	if err := row.Scan(&ref.EventID, &ref.CoordinatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "resolve registration")
	}
	return &ref, nil
}

// Upsert writes the status, timestamp and actor in a single statement, so a
// racing mark is either fully applied or fully overwritten, never mixed.
func (r *Repository) Upsert(ctx context.Context, registrationID string, status Status, actorID string) (Attendance, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, registration_id, status, marked_at, marked_by)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (registration_id) DO UPDATE
		SET status = EXCLUDED.status, marked_at = EXCLUDED.marked_at, marked_by = EXCLUDED.marked_by
		RETURNING id, registration_id, status, marked_at, marked_by
	`, uuid.NewString(), registrationID, status, actorID)
	var a Attendance
	if err := row.Scan(&a.ID, &a.RegistrationID, &a.Status, &a.MarkedAt, &a.MarkedBy); err != nil {
		return Attendance{}, errors.Wrap(err, "upsert attendance")
	}
	return a, nil
}

// CountsForEvent aggregates an event's registrations by status. Registrations
// without an attendance row count as NotMarked through the outer join.
func (r *Repository) CountsForEvent(ctx context.Context, eventID string) (Counts, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE a.status = 'Present'),
		       COUNT(*) FILTER (WHERE a.status = 'Absent')
		FROM registrations r
		LEFT JOIN attendance a ON a.registration_id = r.id
		WHERE r.event_id = $1
	`, eventID)
	var c Counts
	if err := row.Scan(&c.Total, &c.Present, &c.Absent); err != nil {
		return Counts{}, errors.Wrap(err, "count attendance")
	}
	return c, nil
}

// EventRows lists per-participant statuses for an event.
func (r *Repository) EventRows(ctx context.Context, eventID string) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.participant_id, u.name, u.college, COALESCE(a.status, 'NotMarked')
		FROM registrations r
		JOIN users u ON u.id = r.student_id
		LEFT JOIN attendance a ON a.registration_id = r.id
		WHERE r.event_id = $1
		ORDER BY r.enrolled_at
	`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list attendance rows")
	}
	defer rows.Close()
	var res []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.RegistrationID, &row.ParticipantID, &row.Name, &row.College, &row.Status); err != nil {
			return nil, errors.Wrap(err, "scan attendance row")
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// AdminStats aggregates every event, including events with no registrations.
func (r *Repository) AdminStats(ctx context.Context) ([]EventReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.event_id, e.title, e.main_event, e.event_date,
		       COUNT(r.id),
		       COUNT(r.id) FILTER (WHERE a.status = 'Present'),
		       COUNT(r.id) FILTER (WHERE a.status = 'Absent')
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		LEFT JOIN attendance a ON a.registration_id = r.id
		GROUP BY e.id, e.event_id, e.title, e.main_event, e.event_date
		ORDER BY e.event_date
	`)
	if err != nil {
		return nil, errors.Wrap(err, "admin stats")
	}
	defer rows.Close()
	var res []EventReport
	for rows.Next() {
		var rep EventReport
		var present, absent int64
		if err := rows.Scan(&rep.EventID, &rep.Title, &rep.MainEvent, &rep.Date,
			&rep.TotalRegistered, &present, &absent); err != nil {
			return nil, errors.Wrap(err, "scan admin stats")
		}
		rep.Present = present
		rep.Absent = absent
		rep.NotMarked = rep.TotalRegistered - present - absent
		rep.AttendancePercentage = Percentage(present, rep.TotalRegistered)
		res = append(res, rep)
	}
	return res, rows.Err()
}
