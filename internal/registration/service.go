package registration

import (
	"context"
	"errors"

	"eventra/internal/catalog"
)

var (
	// ErrDuplicate is returned when a student is already registered for the
	// event. The (student, event) unique constraint makes this race-safe.
	ErrDuplicate = errors.New("already registered for this event")
	// ErrEventNotFound is returned when the target event does not exist.
	ErrEventNotFound = errors.New("event not found")
)

// EventCatalog resolves event references.
type EventCatalog interface {
	Get(ctx context.Context, id string) (catalog.Event, error)
}

// Store is the persistence needed by the service.
type Store interface {
	Insert(ctx context.Context, studentID string, evt catalog.Event) (Registration, error)
	ListForStudent(ctx context.Context, studentID string) ([]StudentRegistration, error)
	ListForEvent(ctx context.Context, eventID, college string) ([]Participant, error)
	CountForEvent(ctx context.Context, eventID string) (int64, error)
}

// Service admits enrollment requests and answers registration queries.
type Service struct {
	store  Store
	events EventCatalog
}

// NewService creates a service backed by a registration store and event catalog.
func NewService(store Store, events EventCatalog) *Service {
	return &Service{store: store, events: events}
}

// Enroll registers a student for an event. The participant identifier and the
// eager NotMarked attendance row are created atomically with the registration.
func (s *Service) Enroll(ctx context.Context, studentID, eventID string) (Registration, error) {
	if studentID == "" || eventID == "" {
		return Registration{}, errors.New("student and event required")
	}
	evt, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Registration{}, ErrEventNotFound
		}
		return Registration{}, err
	}
	return s.store.Insert(ctx, studentID, evt)
}

// ListForStudent returns the student's registrations in enrollment order.
func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]StudentRegistration, error) {
	return s.store.ListForStudent(ctx, studentID)
}

// ListForEvent returns an event's participants, optionally filtered by exact
// college name.
func (s *Service) ListForEvent(ctx context.Context, eventID, college string) ([]Participant, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.store.ListForEvent(ctx, eventID, college)
}

// CountForEvent returns the number of registrations for an event.
func (s *Service) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	return s.store.CountForEvent(ctx, eventID)
}
