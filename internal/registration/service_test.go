package registration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventra/internal/catalog"
)

// fakeStore enforces the (student, event) uniqueness rule in memory the way
// the database constraint does.
type fakeStore struct {
	regs []Registration
	seq  map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{seq: make(map[string]int64)}
}

func (f *fakeStore) Insert(_ context.Context, studentID string, evt catalog.Event) (Registration, error) {
	for _, r := range f.regs {
		if r.StudentID == studentID && r.EventID == evt.ID {
			return Registration{}, ErrDuplicate
		}
	}
	f.seq[evt.ID]++
	reg := Registration{
		ID:            fmt.Sprintf("reg-%d", len(f.regs)+1),
		ParticipantID: fmt.Sprintf("%s_%05d", evt.Code, f.seq[evt.ID]),
		StudentID:     studentID,
		EventID:       evt.ID,
	}
	f.regs = append(f.regs, reg)
	return reg, nil
}

func (f *fakeStore) ListForStudent(_ context.Context, studentID string) ([]StudentRegistration, error) {
	var res []StudentRegistration
	for _, r := range f.regs {
		if r.StudentID == studentID {
			res = append(res, StudentRegistration{Registration: r})
		}
	}
	return res, nil
}

func (f *fakeStore) ListForEvent(_ context.Context, eventID, college string) ([]Participant, error) {
	var res []Participant
	for _, r := range f.regs {
		if r.EventID == eventID {
			res = append(res, Participant{RegistrationID: r.ID, ParticipantID: r.ParticipantID, AttendanceStatus: "NotMarked"})
		}
	}
	return res, nil
}

func (f *fakeStore) CountForEvent(_ context.Context, eventID string) (int64, error) {
	var n int64
	for _, r := range f.regs {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

type fakeCatalog struct {
	events map[string]catalog.Event
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Event, error) {
	evt, ok := f.events[id]
	if !ok {
		return catalog.Event{}, catalog.ErrNotFound
	}
	return evt, nil
}

func newService() (*Service, *fakeStore) {
	store := newFakeStore()
	events := &fakeCatalog{events: map[string]catalog.Event{
		"evt-1": {ID: "evt-1", Code: "E", Title: "E"},
	}}
	return NewService(store, events), store
}

func TestEnrollTwiceYieldsOneRegistration(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	first, err := svc.Enroll(ctx, "student-a", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "E_00001", first.ParticipantID)

	_, err = svc.Enroll(ctx, "student-a", "evt-1")
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Len(t, store.regs, 1)
}

func TestEnrollUnknownEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Enroll(context.Background(), "student-a", "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEnrollRequiresStudentAndEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Enroll(context.Background(), "", "evt-1")
	assert.Error(t, err)
	_, err = svc.Enroll(context.Background(), "student-a", "")
	assert.Error(t, err)
}

func TestParticipantIDsAreSequentialPerEvent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	for i, student := range []string{"s1", "s2", "s3"} {
		reg, err := svc.Enroll(ctx, student, "evt-1")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("E_%05d", i+1), reg.ParticipantID)
	}
}

func TestListForEventUnknownEvent(t *testing.T) {
	svc, _ := newService()
	_, err := svc.ListForEvent(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
