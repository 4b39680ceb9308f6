package registration

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"eventra/internal/catalog"
	"eventra/internal/sequence"
)

// Registration is one student's enrollment in one event.
type Registration struct {
	ID            string    `json:"registration_id"`
	ParticipantID string    `json:"participant_id"`
	StudentID     string    `json:"student_id"`
	EventID       string    `json:"event_id"`
	EnrolledAt    time.Time `json:"enrolled_at"`
}

// StudentRegistration is a registration enriched with event details for the
// student's own listing.
type StudentRegistration struct {
	Registration
	EventCode  string    `json:"event_code"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
}

// Participant is a registration enriched with the student profile and
// attendance status for coordinator/admin listings.
type Participant struct {
	RegistrationID   string `json:"registration_id"`
	ParticipantID    string `json:"participant_id"`
	Name             string `json:"name"`
	College          string `json:"college"`
	Mobile           string `json:"mobile"`
	AttendanceStatus string `json:"attendance_status"`
}

// Repository persists registrations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a registration and its NotMarked attendance row in one
// transaction. The participant code is claimed from the event-scoped sequence
// inside the same transaction, so a failed insert releases the number with the
// rollback. The (student, event) unique constraint resolves racing duplicate
// enrollments; the loser surfaces ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, studentID string, evt catalog.Event) (Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Registration{}, errors.Wrap(err, "begin enroll")
	}
	defer tx.Rollback()

	seq, err := sequence.Next(ctx, tx, "participants:"+evt.ID)
	if err != nil {
		return Registration{}, err
	}

	reg := Registration{
		ID:            uuid.NewString(),
		ParticipantID: sequence.Format(evt.Code, seq),
		StudentID:     studentID,
		EventID:       evt.ID,
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO registrations (id, participant_id, student_id, event_id)
		VALUES ($1,$2,$3,$4)
		RETURNING enrolled_at
	`, reg.ID, reg.ParticipantID, reg.StudentID, reg.EventID)
	if err := row.Scan(&reg.EnrolledAt); err != nil {
		if isUniqueViolation(err) {
			return Registration{}, ErrDuplicate
		}
		return Registration{}, errors.Wrap(err, "insert registration")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance (id, registration_id)
		VALUES ($1, $2)
	`, uuid.NewString(), reg.ID); err != nil {
		return Registration{}, errors.Wrap(err, "insert attendance row")
	}

	if err := tx.Commit(); err != nil {
		return Registration{}, errors.Wrap(err, "commit enroll")
	}
	return reg, nil
}

// ListForStudent returns a student's registrations in enrollment order.
func (r *Repository) ListForStudent(ctx context.Context, studentID string) ([]StudentRegistration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.participant_id, r.student_id, r.event_id, r.enrolled_at,
		       e.event_id, e.title, e.event_date
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.student_id = $1
		ORDER BY r.enrolled_at
	`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "list registrations for student")
	}
	defer rows.Close()
	var res []StudentRegistration
	for rows.Next() {
		var sr StudentRegistration
		if err := rows.Scan(&sr.ID, &sr.ParticipantID, &sr.StudentID, &sr.EventID, &sr.EnrolledAt,
			&sr.EventCode, &sr.EventTitle, &sr.EventDate); err != nil {
			return nil, errors.Wrap(err, "scan registration")
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

// ListForEvent returns the participants of an event, optionally filtered by
// exact college name. A missing attendance row reads as NotMarked.
func (r *Repository) ListForEvent(ctx context.Context, eventID, college string) ([]Participant, error) {
	query := `
		SELECT r.id, r.participant_id, u.name, u.college, u.mobile,
		       COALESCE(a.status, 'NotMarked')
		FROM registrations r
		JOIN users u ON u.id = r.student_id
		LEFT JOIN attendance a ON a.registration_id = r.id
		WHERE r.event_id = $1`
	args := []any{eventID}
	if college != "" {
		query += ` AND u.college = $2`
		args = append(args, college)
	}
	query += ` ORDER BY r.enrolled_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list participants")
	}
	defer rows.Close()
	var res []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.RegistrationID, &p.ParticipantID, &p.Name, &p.College, &p.Mobile, &p.AttendanceStatus); err != nil {
			return nil, errors.Wrap(err, "scan participant")
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// CountForEvent returns the number of live registrations for an event.
func (r *Repository) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count registrations")
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
