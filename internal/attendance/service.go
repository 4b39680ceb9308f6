package attendance

import (
	"context"
	"errors"
	"math"

	"eventra/internal/auth"
)

var (
	// ErrRegistrationNotFound is returned when the registration does not resolve.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrNotAuthorized is returned when the actor is neither the event's
	// assigned coordinator nor an admin.
	ErrNotAuthorized = errors.New("not authorized to mark attendance for this event")
	// ErrInvalidStatus is returned for statuses other than Present or Absent.
	// Explicitly resetting a record to NotMarked is not a supported transition.
	ErrInvalidStatus = errors.New("status must be Present or Absent")
)

// Actor identifies who is performing a mark.
type Actor struct {
	ID   string
	Role string
}

// EventStats summarizes one event's attendance.
type EventStats struct {
	TotalRegistered      int64   `json:"total_registered"`
	Present              int64   `json:"present"`
	Absent               int64   `json:"absent"`
	NotMarked            int64   `json:"not_marked"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// Store is the persistence needed by the service.
type Store interface {
	RegistrationEvent(ctx context.Context, registrationID string) (*RegistrationRef, error)
	Upsert(ctx context.Context, registrationID string, status Status, actorID string) (Attendance, error)
	CountsForEvent(ctx context.Context, eventID string) (Counts, error)
	EventRows(ctx context.Context, eventID string) ([]Row, error)
	AdminStats(ctx context.Context) ([]EventReport, error)
}

// Service transitions attendance records under authorization control and
// answers aggregate queries.
type Service struct {
	store Store
}

// NewService creates a service backed by an attendance store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Mark sets a registration's status. Admins may mark any registration;
// coordinators only registrations of events assigned to them. Re-marking the
// same status keeps the terminal state but still refreshes marked_at and
// marked_by for the audit trail.
func (s *Service) Mark(ctx context.Context, registrationID string, status Status, actor Actor) (Attendance, error) {
	if !status.Valid() {
		return Attendance{}, ErrInvalidStatus
	}
	ref, err := s.store.RegistrationEvent(ctx, registrationID)
	if err != nil {
		return Attendance{}, err
	}
	if ref == nil {
		return Attendance{}, ErrRegistrationNotFound
	}
	if !allowed(actor, ref) {
		return Attendance{}, ErrNotAuthorized
	}
	return s.store.Upsert(ctx, registrationID, status, actor.ID)
}

func allowed(actor Actor, ref *RegistrationRef) bool {
	if actor.Role == auth.RoleAdmin {
		return true
	}
	return actor.Role == auth.RoleCoordinator &&
		ref.CoordinatorID != nil && *ref.CoordinatorID == actor.ID
}

// StatsForEvent returns the attendance summary for an event. An event with no
// registrations reports a percentage of 0.
func (s *Service) StatsForEvent(ctx context.Context, eventID string) (EventStats, error) {
	c, err := s.store.CountsForEvent(ctx, eventID)
	if err != nil {
		return EventStats{}, err
	}
	return EventStats{
		TotalRegistered:      c.Total,
		Present:              c.Present,
		Absent:               c.Absent,
		NotMarked:            c.Total - c.Present - c.Absent,
		AttendancePercentage: Percentage(c.Present, c.Total),
	}, nil
}

// EventAttendance returns the summary plus per-participant rows for an event.
func (s *Service) EventAttendance(ctx context.Context, eventID string) (EventStats, []Row, error) {
	stats, err := s.StatsForEvent(ctx, eventID)
	if err != nil {
		return EventStats{}, nil, err
	}
	rows, err := s.store.EventRows(ctx, eventID)
	if err != nil {
		return EventStats{}, nil, err
	}
	return stats, rows, nil
}

// AdminEventStats returns the per-event aggregate report.
func (s *Service) AdminEventStats(ctx context.Context) ([]EventReport, error) {
	return s.store.AdminStats(ctx)
}

// Percentage returns present/total as a percentage rounded to two decimals,
// and 0 when total is 0.
func Percentage(present, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}
