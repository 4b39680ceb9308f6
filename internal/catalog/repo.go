package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"eventra/internal/sequence"
)

// Event is a main event (MainEvent empty) or a sub-event under a main event.
type Event struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	Code          string    `json:"code"`
	MainEvent     *string   `json:"main_event"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Venue         string    `json:"venue"`
	CoordinatorID *string   `json:"coordinator_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventUpdate carries the fields of an event to rewrite. Nil fields keep
// their stored value.
type EventUpdate struct {
	Title         *string
	Description   *string
	Date          *time.Time
	Venue         *string
	CoordinatorID *string
}

// College groups students for filtering and theming.
type College struct {
	ID        string    `json:"id"`
	CollegeID string    `json:"college_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Theme     string    `json:"theme"`
	LogoURL   *string   `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists events and colleges in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventCols = `id, event_id, code, main_event, title, description, event_date, venue, coordinator_id, created_at`

// InsertEvent claims the next event number for the current year and writes the
// event in the same transaction, so a rolled-back insert never burns a visible
// gap in racing requests.
func (r *Repository) InsertEvent(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, errors.Wrap(err, "begin insert event")
	}
	defer tx.Rollback()

	year := time.Now().UTC().Year()
	seq, err := sequence.Next(ctx, tx, fmt.Sprintf("events:%d", year))
	if err != nil {
		return Event{}, err
	}
	evt.EventID = fmt.Sprintf("EVT%d_%05d", year, seq)

	row := tx.QueryRowContext(ctx, `
		INSERT INTO events (id, event_id, code, main_event, title, description, event_date, venue, coordinator_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, evt.ID, evt.EventID, evt.Code, evt.MainEvent, evt.Title, evt.Description, evt.Date, evt.Venue, evt.CoordinatorID)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, errors.Wrap(err, "insert event")
	}
	if err := tx.Commit(); err != nil {
		return Event{}, errors.Wrap(err, "commit insert event")
	}
	return evt, nil
}

// GetEvent returns an event by system id, or nil when absent.
func (r *Repository) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// ListMainEvents returns top-level events ordered by date.
func (r *Repository) ListMainEvents(ctx context.Context) ([]Event, error) {
	return r.listEvents(ctx, `SELECT `+eventCols+` FROM events WHERE main_event IS NULL ORDER BY event_date`)
}

// ListSubEvents returns sub-events under a main event name ordered by date.
func (r *Repository) ListSubEvents(ctx context.Context, mainEvent string) ([]Event, error) {
	return r.listEvents(ctx, `SELECT `+eventCols+` FROM events WHERE main_event = $1 ORDER BY event_date`, mainEvent)
}

func (r *Repository) listEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.EventID, &evt.Code, &evt.MainEvent, &evt.Title, &evt.Description,
			&evt.Date, &evt.Venue, &evt.CoordinatorID, &evt.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// UpdateEvent applies the provided fields to an event; omitted fields keep
// their stored value. Returns the updated event or nil when the id does not
// resolve.
func (r *Repository) UpdateEvent(ctx context.Context, id string, upd EventUpdate) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE events
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    event_date = COALESCE($4, event_date),
		    venue = COALESCE($5, venue),
		    coordinator_id = COALESCE($6, coordinator_id)
		WHERE id = $1
		RETURNING `+eventCols+`
	`, id, upd.Title, upd.Description, upd.Date, upd.Venue, upd.CoordinatorID)
	return scanEvent(row)
}

// DeleteEvent removes an event. Registrations and their attendance rows go
// with it through ON DELETE CASCADE. Reports false when the id does not resolve.
func (r *Repository) DeleteEvent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete event")
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanEvent(row *sql.Row) (*Event, error) {
	var evt Event
	if err := row.Scan(&evt.ID, &evt.EventID, &evt.Code, &evt.MainEvent, &evt.Title, &evt.Description,
		&evt.Date, &evt.Venue, &evt.CoordinatorID, &evt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "scan event")
	}
	return &evt, nil
}

// InsertCollege writes a college with a claimed COL sequence number.
func (r *Repository) InsertCollege(ctx context.Context, c College) (College, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return College{}, errors.Wrap(err, "begin insert college")
	}
	defer tx.Rollback()

	seq, err := sequence.Next(ctx, tx, "colleges")
	if err != nil {
		return College{}, err
	}
	c.CollegeID = fmt.Sprintf("COL%03d", seq)

	row := tx.QueryRowContext(ctx, `
		INSERT INTO colleges (id, college_id, name, slug, theme)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, c.ID, c.CollegeID, c.Name, c.Slug, c.Theme)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return College{}, errors.Wrap(err, "insert college")
	}
	if err := tx.Commit(); err != nil {
		return College{}, errors.Wrap(err, "commit insert college")
	}
	return c, nil
}

// ListColleges returns all colleges by name.
func (r *Repository) ListColleges(ctx context.Context) ([]College, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, college_id, name, slug, theme, logo_url, created_at
		FROM colleges ORDER BY name
	`)
	if err != nil {
		return nil, errors.Wrap(err, "list colleges")
	}
	defer rows.Close()
	var res []College
	for rows.Next() {
		var c College
		if err := rows.Scan(&c.ID, &c.CollegeID, &c.Name, &c.Slug, &c.Theme, &c.LogoURL, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan college")
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// SetCollegeLogo stores the uploaded logo URL. Reports false when the id does
// not resolve.
func (r *Repository) SetCollegeLogo(ctx context.Context, id, logoURL string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE colleges SET logo_url = $2 WHERE id = $1`, id, logoURL)
	if err != nil {
		return false, errors.Wrap(err, "set college logo")
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
