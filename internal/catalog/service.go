package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"eventra/internal/auth"
	"eventra/internal/identity"
)

var (
	// ErrNotFound is returned when an event or college id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinator is returned when a coordinator reference does not
	// resolve to a user with the coordinator role.
	ErrInvalidCoordinator = errors.New("invalid coordinator")
)

// UserDirectory resolves coordinator references against the identity store.
type UserDirectory interface {
	Resolve(ctx context.Context, id string) (*identity.User, error)
}

// Store is the persistence needed by the service.
type Store interface {
	InsertEvent(ctx context.Context, evt Event) (Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListMainEvents(ctx context.Context) ([]Event, error)
	ListSubEvents(ctx context.Context, mainEvent string) ([]Event, error)
	UpdateEvent(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
	InsertCollege(ctx context.Context, c College) (College, error)
	ListColleges(ctx context.Context) ([]College, error)
	SetCollegeLogo(ctx context.Context, id, logoURL string) (bool, error)
}

// Service manages the event and college catalog.
type Service struct {
	store Store
	users UserDirectory
}

// NewService creates a service backed by a catalog store and user directory.
func NewService(store Store, users UserDirectory) *Service {
	return &Service{store: store, users: users}
}

// CreateMainEvent creates a top-level event. The short code defaults to the
// uppercase initials of the title and scopes participant identifiers.
func (s *Service) CreateMainEvent(ctx context.Context, evt Event) (Event, error) {
	if evt.Title == "" || evt.Date.IsZero() {
		return Event{}, errors.New("title and date required")
	}
	evt.MainEvent = nil
	evt.CoordinatorID = nil
	if evt.Code == "" {
		evt.Code = DeriveCode(evt.Title)
	}
	return s.store.InsertEvent(ctx, evt)
}

// CreateSubEvent creates an event under a main event, optionally assigned to a
// coordinator.
func (s *Service) CreateSubEvent(ctx context.Context, evt Event) (Event, error) {
	if evt.Title == "" || evt.Date.IsZero() {
		return Event{}, errors.New("title and date required")
	}
	if evt.MainEvent == nil || *evt.MainEvent == "" {
		return Event{}, errors.New("main event required")
	}
	if err := s.validateCoordinator(ctx, evt.CoordinatorID); err != nil {
		return Event{}, err
	}
	if evt.Code == "" {
		evt.Code = DeriveCode(evt.Title)
	}
	return s.store.InsertEvent(ctx, evt)
}

// Get returns an event by id.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	evt, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if evt == nil {
		return Event{}, ErrNotFound
	}
	return *evt, nil
}

// ListMain returns top-level events.
func (s *Service) ListMain(ctx context.Context) ([]Event, error) {
	return s.store.ListMainEvents(ctx)
}

// ListSub returns the sub-events of a main event.
func (s *Service) ListSub(ctx context.Context, mainEvent string) ([]Event, error) {
	return s.store.ListSubEvents(ctx, mainEvent)
}

// Update applies the provided fields to an event, leaving omitted ones
// untouched, and re-validates any coordinator reference.
func (s *Service) Update(ctx context.Context, id string, upd EventUpdate) (Event, error) {
	if err := s.validateCoordinator(ctx, upd.CoordinatorID); err != nil {
		return Event{}, err
	}
	updated, err := s.store.UpdateEvent(ctx, id, upd)
	if err != nil {
		return Event{}, err
	}
	if updated == nil {
		return Event{}, ErrNotFound
	}
	return *updated, nil
}

// Delete removes an event together with its registrations and attendance.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteEvent(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// CreateCollege creates a college. The slug defaults to the lowercased,
// hyphenated name.
func (s *Service) CreateCollege(ctx context.Context, c College) (College, error) {
	if c.Name == "" {
		return College{}, errors.New("name required")
	}
	if c.Slug == "" {
		c.Slug = strings.ToLower(strings.Join(strings.Fields(c.Name), "-"))
	}
	if c.Theme == "" {
		c.Theme = "#6366f1"
	}
	return s.store.InsertCollege(ctx, c)
}

// ListColleges returns all colleges.
func (s *Service) ListColleges(ctx context.Context) ([]College, error) {
	return s.store.ListColleges(ctx)
}

// SetCollegeLogo records the uploaded logo URL for a college.
func (s *Service) SetCollegeLogo(ctx context.Context, id, logoURL string) error {
	ok, err := s.store.SetCollegeLogo(ctx, id, logoURL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) validateCoordinator(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	u, err := s.users.Resolve(ctx, *id)
	if err != nil {
		return err
	}
	if u == nil || u.Role != auth.RoleCoordinator {
		return ErrInvalidCoordinator
	}
	return nil
}

// DeriveCode builds an event's short code from the initials of its title,
// e.g. "Web Development Workshop" -> "WDW".
func DeriveCode(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "EVT"
	}
	return b.String()
}
