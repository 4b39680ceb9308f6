package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventra/internal/attendance"
	"eventra/internal/auth"
	"eventra/internal/catalog"
	"eventra/internal/identity"
	"eventra/internal/queue"
	"eventra/internal/registration"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testKey    = "test-signing-key"
	testIssuer = "eventra"
)

type stubIdentity struct {
	registerErr error
	loginUser   identity.User
	loginErr    error
}

func (s *stubIdentity) Register(_ context.Context, u identity.User, _ string) (identity.User, error) {
	if s.registerErr != nil {
		return identity.User{}, s.registerErr
	}
	u.ID = "user-1"
	return u, nil
}

func (s *stubIdentity) Login(_ context.Context, _, _ string) (identity.User, error) {
	return s.loginUser, s.loginErr
}

type stubCatalog struct {
	event    catalog.Event
	eventErr error
}

func (s *stubCatalog) CreateMainEvent(_ context.Context, evt catalog.Event) (catalog.Event, error) {
	return evt, nil
}
func (s *stubCatalog) CreateSubEvent(_ context.Context, evt catalog.Event) (catalog.Event, error) {
	return evt, nil
}
func (s *stubCatalog) Get(_ context.Context, _ string) (catalog.Event, error) {
	return s.event, s.eventErr
}
func (s *stubCatalog) ListMain(_ context.Context) ([]catalog.Event, error)          { return nil, nil }
func (s *stubCatalog) ListSub(_ context.Context, _ string) ([]catalog.Event, error) { return nil, nil }
func (s *stubCatalog) Update(_ context.Context, _ string, _ catalog.EventUpdate) (catalog.Event, error) {
	return s.event, nil
}
func (s *stubCatalog) Delete(_ context.Context, _ string) error { return nil }
func (s *stubCatalog) CreateCollege(_ context.Context, c catalog.College) (catalog.College, error) {
	return c, nil
}
func (s *stubCatalog) ListColleges(_ context.Context) ([]catalog.College, error) { return nil, nil }
func (s *stubCatalog) SetCollegeLogo(_ context.Context, _, _ string) error       { return nil }

type stubRegistrations struct {
	reg       registration.Registration
	enrollErr error
}

func (s *stubRegistrations) Enroll(_ context.Context, studentID, eventID string) (registration.Registration, error) {
	if s.enrollErr != nil {
		return registration.Registration{}, s.enrollErr
	}
	r := s.reg
	r.StudentID = studentID
	r.EventID = eventID
	return r, nil
}

func (s *stubRegistrations) ListForStudent(_ context.Context, _ string) ([]registration.StudentRegistration, error) {
	return nil, nil
}

func (s *stubRegistrations) ListForEvent(_ context.Context, _, _ string) ([]registration.Participant, error) {
	return nil, nil
}

func (s *stubRegistrations) CountForEvent(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

type stubAttendance struct {
	rec     attendance.Attendance
	markErr error
	stats   attendance.EventStats
	rows    []attendance.Row
}

func (s *stubAttendance) Mark(_ context.Context, registrationID string, status attendance.Status, _ attendance.Actor) (attendance.Attendance, error) {
	if s.markErr != nil {
		return attendance.Attendance{}, s.markErr
	}
	r := s.rec
	r.RegistrationID = registrationID
	r.Status = status
	return r, nil
}

func (s *stubAttendance) StatsForEvent(_ context.Context, _ string) (attendance.EventStats, error) {
	return s.stats, nil
}

func (s *stubAttendance) EventAttendance(_ context.Context, _ string) (attendance.EventStats, []attendance.Row, error) {
	return s.stats, s.rows, nil
}

func (s *stubAttendance) AdminEventStats(_ context.Context) ([]attendance.EventReport, error) {
	return nil, nil
}

func newTestRouter(id IdentityService, cat CatalogService, reg RegistrationService, att AttendanceService) *gin.Engine {
	h := New(id, cat, reg, att, queue.NewInMemory(16), nil, TokenConfig{
		Issuer:     testIssuer,
		SigningKey: testKey,
		TTL:        time.Hour,
	}, zap.NewNop().Sugar())
	r := gin.New()
	h.Register(r)
	return r
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, _, err := auth.Issue(subject, role, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return tok
}

func doJSON(r *gin.Engine, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEnrollCreated(t *testing.T) {
	reg := &stubRegistrations{reg: registration.Registration{ID: "reg-1", ParticipantID: "E_00001"}}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, reg, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/registrations/enroll",
		token(t, "student-1", auth.RoleStudent), `{"event_id":"evt-1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Registration registration.Registration `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "E_00001", resp.Registration.ParticipantID)
	assert.Equal(t, "student-1", resp.Registration.StudentID)
}

func TestEnrollDuplicate(t *testing.T) {
	reg := &stubRegistrations{enrollErr: registration.ErrDuplicate}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, reg, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/registrations/enroll",
		token(t, "student-1", auth.RoleStudent), `{"event_id":"evt-1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollUnknownEvent(t *testing.T) {
	reg := &stubRegistrations{enrollErr: registration.ErrEventNotFound}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, reg, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/registrations/enroll",
		token(t, "student-1", auth.RoleStudent), `{"event_id":"missing"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollRequiresToken(t *testing.T) {
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})
	w := doJSON(r, http.MethodPost, "/api/registrations/enroll", "", `{"event_id":"evt-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollRequiresStudentRole(t *testing.T) {
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})
	w := doJSON(r, http.MethodPost, "/api/registrations/enroll",
		token(t, "coord-1", auth.RoleCoordinator), `{"event_id":"evt-1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkAttendanceOK(t *testing.T) {
	att := &stubAttendance{}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, att)

	w := doJSON(r, http.MethodPost, "/api/attendance/mark",
		token(t, "coord-1", auth.RoleCoordinator),
		`{"registration_id":"reg-1","status":"Present"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Attendance attendance.Attendance `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, attendance.StatusPresent, resp.Attendance.Status)
}

func TestMarkAttendanceForbidden(t *testing.T) {
	att := &stubAttendance{markErr: attendance.ErrNotAuthorized}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, att)

	w := doJSON(r, http.MethodPost, "/api/attendance/mark",
		token(t, "coord-2", auth.RoleCoordinator),
		`{"registration_id":"reg-1","status":"Present"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkAttendanceNotFound(t *testing.T) {
	att := &stubAttendance{markErr: attendance.ErrRegistrationNotFound}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, att)

	w := doJSON(r, http.MethodPost, "/api/attendance/mark",
		token(t, "admin-1", auth.RoleAdmin),
		`{"registration_id":"missing","status":"Present"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAttendanceInvalidStatus(t *testing.T) {
	att := &stubAttendance{markErr: attendance.ErrInvalidStatus}
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, att)

	w := doJSON(r, http.MethodPost, "/api/attendance/mark",
		token(t, "admin-1", auth.RoleAdmin),
		`{"registration_id":"reg-1","status":"NotMarked"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAttendanceStudentRoleRejected(t *testing.T) {
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/attendance/mark",
		token(t, "student-1", auth.RoleStudent),
		`{"registration_id":"reg-1","status":"Present"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEventAttendanceShape(t *testing.T) {
	att := &stubAttendance{
		stats: attendance.EventStats{TotalRegistered: 2, Present: 1, NotMarked: 1, AttendancePercentage: 50},
		rows: []attendance.Row{
			{RegistrationID: "reg-1", ParticipantID: "E_00001", Status: attendance.StatusPresent},
			{RegistrationID: "reg-2", ParticipantID: "E_00002", Status: attendance.StatusNotMarked},
		},
	}
	cat := &stubCatalog{event: catalog.Event{ID: "evt-1", EventID: "EVT2025_00001", Title: "E"}}
	r := newTestRouter(&stubIdentity{}, cat, &stubRegistrations{}, att)

	w := doJSON(r, http.MethodGet, "/api/attendance/event/evt-1",
		token(t, "admin-1", auth.RoleAdmin), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Summary    attendance.EventStats `json:"summary"`
		Attendance []attendance.Row      `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Summary.TotalRegistered)
	assert.Len(t, resp.Attendance, 2)
}

func TestEventAttendanceUnknownEvent(t *testing.T) {
	cat := &stubCatalog{eventErr: catalog.ErrNotFound}
	r := newTestRouter(&stubIdentity{}, cat, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodGet, "/api/attendance/event/missing",
		token(t, "admin-1", auth.RoleAdmin), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStatsRequiresAdmin(t *testing.T) {
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodGet, "/api/admin/events/stats",
		token(t, "student-1", auth.RoleStudent), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, "/api/admin/events/stats",
		token(t, "admin-1", auth.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListRegistrationsRequiresEventID(t *testing.T) {
	r := newTestRouter(&stubIdentity{}, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodGet, "/api/registrations",
		token(t, "coord-1", auth.RoleCoordinator), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesRoleToken(t *testing.T) {
	id := &stubIdentity{loginUser: identity.User{ID: "user-1", Role: auth.RoleCoordinator}}
	r := newTestRouter(id, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/auth/login", "",
		`{"email":"c@example.com","password":"coord123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := auth.Parse(resp.Token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCoordinator, claims.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	id := &stubIdentity{loginErr: identity.ErrInvalidCredentials}
	r := newTestRouter(id, &stubCatalog{}, &stubRegistrations{}, &stubAttendance{})

	w := doJSON(r, http.MethodPost, "/api/auth/login", "",
		`{"email":"c@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
