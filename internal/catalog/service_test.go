package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventra/internal/auth"
	"eventra/internal/identity"
)

type fakeStore struct {
	events   map[string]Event
	colleges []College
	inserted []Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[string]Event)}
}

func (f *fakeStore) InsertEvent(_ context.Context, evt Event) (Event, error) {
	evt.ID = "evt-" + evt.Title
	evt.EventID = "EVT2025_00001"
	f.events[evt.ID] = evt
	f.inserted = append(f.inserted, evt)
	return evt, nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*Event, error) {
	evt, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	return &evt, nil
}

func (f *fakeStore) ListMainEvents(_ context.Context) ([]Event, error)          { return nil, nil }
func (f *fakeStore) ListSubEvents(_ context.Context, _ string) ([]Event, error) { return nil, nil }

func (f *fakeStore) UpdateEvent(_ context.Context, id string, upd EventUpdate) (*Event, error) {
	evt, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	if upd.Title != nil {
		evt.Title = *upd.Title
	}
	if upd.Description != nil {
		evt.Description = *upd.Description
	}
	if upd.Date != nil {
		evt.Date = *upd.Date
	}
	if upd.Venue != nil {
		evt.Venue = *upd.Venue
	}
	if upd.CoordinatorID != nil {
		evt.CoordinatorID = upd.CoordinatorID
	}
	f.events[id] = evt
	return &evt, nil
}

func (f *fakeStore) DeleteEvent(_ context.Context, id string) (bool, error) {
	_, ok := f.events[id]
	delete(f.events, id)
	return ok, nil
}

func (f *fakeStore) InsertCollege(_ context.Context, c College) (College, error) {
	c.ID = "col-" + c.Name
	c.CollegeID = "COL001"
	f.colleges = append(f.colleges, c)
	return c, nil
}

func (f *fakeStore) ListColleges(_ context.Context) ([]College, error) { return f.colleges, nil }

func (f *fakeStore) SetCollegeLogo(_ context.Context, id, _ string) (bool, error) {
	for _, c := range f.colleges {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeUsers struct {
	users map[string]*identity.User
}

func (f *fakeUsers) Resolve(_ context.Context, id string) (*identity.User, error) {
	return f.users[id], nil
}

func newService() (*Service, *fakeStore) {
	store := newFakeStore()
	users := &fakeUsers{users: map[string]*identity.User{
		"coord-1":   {ID: "coord-1", Role: auth.RoleCoordinator},
		"student-1": {ID: "student-1", Role: auth.RoleStudent},
	}}
	return NewService(store, users), store
}

func strPtr(s string) *string { return &s }

func TestDeriveCode(t *testing.T) {
	assert.Equal(t, "WDW", DeriveCode("Web Development Workshop"))
	assert.Equal(t, "E", DeriveCode("E"))
	assert.Equal(t, "TS2", DeriveCode("Tech Symposium 2025"))
	assert.Equal(t, "EVT", DeriveCode(""))
	assert.Equal(t, "EVT", DeriveCode("---"))
}

func TestCreateMainEventDerivesCode(t *testing.T) {
	svc, _ := newService()
	evt, err := svc.CreateMainEvent(context.Background(), Event{
		Title: "Tech Symposium 2025",
		Date:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "TS2", evt.Code)
	assert.Nil(t, evt.MainEvent)
	assert.Nil(t, evt.CoordinatorID)
}

func TestCreateMainEventRequiresTitleAndDate(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateMainEvent(context.Background(), Event{Title: "No Date"})
	assert.Error(t, err)
	_, err = svc.CreateMainEvent(context.Background(), Event{Date: time.Now()})
	assert.Error(t, err)
}

func TestCreateSubEventValidatesCoordinator(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	base := Event{
		Title:     "Physics Exhibition",
		Date:      time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		MainEvent: strPtr("Science Fair 2025"),
	}

	evt := base
	evt.CoordinatorID = strPtr("coord-1")
	_, err := svc.CreateSubEvent(ctx, evt)
	assert.NoError(t, err)

	evt = base
	evt.CoordinatorID = strPtr("student-1")
	_, err = svc.CreateSubEvent(ctx, evt)
	assert.ErrorIs(t, err, ErrInvalidCoordinator)

	evt = base
	evt.CoordinatorID = strPtr("ghost")
	_, err = svc.CreateSubEvent(ctx, evt)
	assert.ErrorIs(t, err, ErrInvalidCoordinator)
}

func TestCreateSubEventRequiresMainEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateSubEvent(context.Background(), Event{
		Title: "Orphan",
		Date:  time.Now(),
	})
	assert.Error(t, err)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.CreateMainEvent(ctx, Event{
		Title:       "Tech Symposium 2025",
		Description: "Annual symposium",
		Venue:       "Main Hall",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, EventUpdate{Venue: strPtr("Auditorium")})
	require.NoError(t, err)
	assert.Equal(t, "Auditorium", updated.Venue)
	assert.Equal(t, "Annual symposium", updated.Description)
	assert.Equal(t, "Tech Symposium 2025", updated.Title)
	assert.Equal(t, created.Date, updated.Date)
}

func TestUpdateValidatesCoordinator(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.CreateMainEvent(ctx, Event{
		Title: "Tech Symposium 2025",
		Date:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, EventUpdate{CoordinatorID: strPtr("student-1")})
	assert.ErrorIs(t, err, ErrInvalidCoordinator)

	updated, err := svc.Update(ctx, created.ID, EventUpdate{CoordinatorID: strPtr("coord-1")})
	require.NoError(t, err)
	require.NotNil(t, updated.CoordinatorID)
	assert.Equal(t, "coord-1", *updated.CoordinatorID)
}

func TestUpdateMissingEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Update(context.Background(), "missing", EventUpdate{Venue: strPtr("Hall B")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingEvent(t *testing.T) {
	svc, _ := newService()
	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCollegeDefaultsSlug(t *testing.T) {
	svc, _ := newService()
	col, err := svc.CreateCollege(context.Background(), College{Name: "Tech College"})
	require.NoError(t, err)
	assert.Equal(t, "tech-college", col.Slug)
	assert.Equal(t, "#6366f1", col.Theme)
}
